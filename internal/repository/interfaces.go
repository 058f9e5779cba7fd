// Package repository はデータ永続化のインターフェースを定義する。
//
// 永続ストアは文字列キー→JSONシリアライズ値のキー・バリュー構造で、
// セッションレコード（固定キー "user"）とお気に入りパーティション
// （キー "favorites-{userID}"）の2種類のレコードを保持する。
// 破損したレコードはパースせずmodel.ErrCorruptRecordを返し、
// 呼び出し側が空状態へフォールバックする。
package repository

import (
	"context"

	"github.com/kenta/newsstand/internal/model"
)

// SessionRecordRepository は「現在のユーザー」レコードの永続化インターフェース。
// レコードは常に固定キーの1件のみ。パスワードは含まれない。
type SessionRecordRepository interface {
	// Save は現在のユーザーを保存する。既存レコードは上書きされる。
	Save(ctx context.Context, user *model.User) error

	// Load は現在のユーザーを取得する。
	// レコードが存在しない場合はnilを返す。
	// レコードが破損している場合はmodel.ErrCorruptRecordを返す。
	Load(ctx context.Context) (*model.User, error)

	// Delete は現在のユーザーレコードを削除する。レコード不在でもエラーにしない。
	Delete(ctx context.Context) error
}

// FavoritesRepository はユーザーごとのお気に入り記事集合の永続化インターフェース。
// 集合は常に全量スナップショットとして保存される（差分書き込みは行わない）。
type FavoritesRepository interface {
	// SaveSet は指定ユーザーのお気に入り集合全体を保存する。
	SaveSet(ctx context.Context, userID string, articles []model.Article) error

	// LoadSet は指定ユーザーのお気に入り集合を挿入順で取得する。
	// パーティションが存在しない場合は空スライスを返す。
	// レコードが破損している場合はmodel.ErrCorruptRecordを返す。
	LoadSet(ctx context.Context, userID string) ([]model.Article, error)

	// DeleteSet は指定ユーザーのパーティションを削除する。レコード不在でもエラーにしない。
	DeleteSet(ctx context.Context, userID string) error
}
