package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/kenta/newsstand/internal/model"
)

// favoritesKeyPrefix はお気に入りパーティションのキープレフィックス。
const favoritesKeyPrefix = "favorites-"

// SQLiteFavoritesRepo はSQLite KVストアを使用したお気に入りリポジトリ。
// パーティションキーはユーザーIDから導出される。
type SQLiteFavoritesRepo struct {
	kv kvStore
}

// NewSQLiteFavoritesRepo はSQLiteFavoritesRepoを生成する。
func NewSQLiteFavoritesRepo(db *sql.DB) *SQLiteFavoritesRepo {
	return &SQLiteFavoritesRepo{kv: kvStore{db: db}}
}

// SaveSet は指定ユーザーのお気に入り集合全体を保存する。
// 毎回全量スナップショットを書き込むため、永続ストアは常に一貫した状態を反映する。
func (r *SQLiteFavoritesRepo) SaveSet(ctx context.Context, userID string, articles []model.Article) error {
	if articles == nil {
		articles = []model.Article{}
	}
	data, err := json.Marshal(articles)
	if err != nil {
		return err
	}
	return r.kv.set(ctx, favoritesKeyPrefix+userID, string(data))
}

// LoadSet は指定ユーザーのお気に入り集合を挿入順で取得する。
// パーティション不在の場合は空スライスを返す。
// 破損したレコードはmodel.ErrCorruptRecordとして報告する。
func (r *SQLiteFavoritesRepo) LoadSet(ctx context.Context, userID string) ([]model.Article, error) {
	value, found, err := r.kv.get(ctx, favoritesKeyPrefix+userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return []model.Article{}, nil
	}

	var articles []model.Article
	if err := json.Unmarshal([]byte(value), &articles); err != nil {
		slog.Warn("corrupt favorites record in durable store",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.ErrCorruptRecord
	}
	if articles == nil {
		articles = []model.Article{}
	}

	return articles, nil
}

// DeleteSet は指定ユーザーのパーティションを削除する。レコード不在でもエラーにしない。
func (r *SQLiteFavoritesRepo) DeleteSet(ctx context.Context, userID string) error {
	return r.kv.delete(ctx, favoritesKeyPrefix+userID)
}

// compile-time interface check
var _ FavoritesRepository = (*SQLiteFavoritesRepo)(nil)
