package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// kvStore はkv_storeテーブルへの低レベルアクセスを提供する。
// 両リポジトリが共有する内部ヘルパー。
type kvStore struct {
	db *sql.DB
}

// get は指定キーの値を取得する。キーが存在しない場合は("", false, nil)を返す。
func (s *kvStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = ?`,
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}

	return value, true, nil
}

// set は指定キーに値をUPSERTする。
func (s *kvStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// delete は指定キーのレコードを削除する。キー不在でもエラーにしない。
func (s *kvStore) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_store WHERE key = ?`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
