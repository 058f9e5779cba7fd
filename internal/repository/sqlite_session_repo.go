package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/kenta/newsstand/internal/model"
)

// currentUserKey は「現在のユーザー」レコードの固定キー。
const currentUserKey = "user"

// SQLiteSessionRepo はSQLite KVストアを使用したセッションレコードリポジトリ。
type SQLiteSessionRepo struct {
	kv kvStore
}

// NewSQLiteSessionRepo はSQLiteSessionRepoを生成する。
func NewSQLiteSessionRepo(db *sql.DB) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{kv: kvStore{db: db}}
}

// Save は現在のユーザーを固定キーに保存する。既存レコードは上書きされる。
func (r *SQLiteSessionRepo) Save(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.kv.set(ctx, currentUserKey, string(data))
}

// Load は現在のユーザーを取得する。レコード不在の場合はnilを返す。
// 破損したレコードはmodel.ErrCorruptRecordとして報告し、削除はしない。
func (r *SQLiteSessionRepo) Load(ctx context.Context) (*model.User, error) {
	value, found, err := r.kv.get(ctx, currentUserKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(value), &user); err != nil {
		slog.Warn("corrupt session record in durable store",
			slog.String("key", currentUserKey),
			slog.String("error", err.Error()),
		)
		return nil, model.ErrCorruptRecord
	}

	return &user, nil
}

// Delete は現在のユーザーレコードを削除する。レコード不在でもエラーにしない。
func (r *SQLiteSessionRepo) Delete(ctx context.Context) error {
	return r.kv.delete(ctx, currentUserKey)
}

// compile-time interface check
var _ SessionRecordRepository = (*SQLiteSessionRepo)(nil)
