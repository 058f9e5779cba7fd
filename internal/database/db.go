package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open はクライアントローカルのSQLiteデータベース接続を開く。
// pathはデータベースファイルのパスを指定する（例: "newsstand.db"）。
// busy_timeoutを設定し、同一ストアを共有する別プロセスとの
// 短時間のロック競合を待機で解決する（last-write-wins）。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLiteは単一ライターのため接続数を1に制限する
	db.SetMaxOpenConns(1)

	return db, nil
}
