package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analysis_reports (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT    NOT NULL UNIQUE,
	overall_score  INTEGER NOT NULL,
	classification TEXT    NOT NULL,
	created_at     TEXT    NOT NULL,
	payload        TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_reports_created_at ON analysis_reports (created_at);
`

// SQLiteRepository 单机 SQLite 报告存储
type SQLiteRepository struct {
	sqlRepository
}

// OpenSQLite 打开 SQLite 文件并建表
func OpenSQLite(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// 单写者，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		sqliteMigration,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %q: %w", firstLine(stmt), err)
		}
	}

	return &SQLiteRepository{sqlRepository{
		db:          db,
		placeholder: func(int) string { return "?" },
		isDuplicate: func(err error) bool { return strings.Contains(err.Error(), "UNIQUE constraint failed") },
		timeArg:     func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
	}}, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
