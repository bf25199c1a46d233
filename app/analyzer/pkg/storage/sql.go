package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// sqlRepository postgres 与 sqlite 共用的实现
type sqlRepository struct {
	db          *sql.DB
	placeholder func(n int) string // 第 n 个参数的占位符，从 1 开始
	isDuplicate func(err error) bool
	timeArg     func(t time.Time) any
}

func (r *sqlRepository) Prepend(ctx context.Context, reports ...model.AnalysisReport) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT INTO analysis_reports (id, overall_score, classification, created_at, payload) VALUES (%s, %s, %s, %s, %s)",
		r.placeholder(1), r.placeholder(2), r.placeholder(3), r.placeholder(4), r.placeholder(5))

	// 自增序号决定顺序，倒序插入使第一条最新
	for i := len(reports) - 1; i >= 0; i-- {
		rep := reports[i]
		rep.OriginalConversation = sanitizeText(rep.OriginalConversation)

		payload, err := json.Marshal(rep)
		if err != nil {
			return rollback(tx, fmt.Errorf("marshal report %s: %w", rep.ID, err))
		}

		if _, err := tx.ExecContext(ctx, query,
			rep.ID, rep.OverallScore, string(rep.Classification), r.timeArg(rep.Date), string(payload),
		); err != nil {
			if r.isDuplicate(err) {
				return rollback(tx, fmt.Errorf("%w: %s", ErrDuplicateID, rep.ID))
			}
			return rollback(tx, err)
		}
	}

	return tx.Commit()
}

func (r *sqlRepository) List(ctx context.Context) (model.History, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT payload FROM analysis_reports ORDER BY seq DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := model.History{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rep model.AnalysisReport
		if err := json.Unmarshal([]byte(payload), &rep); err != nil {
			return nil, fmt.Errorf("decode stored report: %w", err)
		}
		history = append(history, rep)
	}
	return history, rows.Err()
}

func (r *sqlRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM analysis_reports WHERE id = "+r.placeholder(1), id)
	return err
}

func (r *sqlRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM analysis_reports")
	return err
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}

func rollback(tx *sql.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}

// sanitizeText 去掉无效的 UTF-8 和 NULL 字节，PostgreSQL 文本字段不接受 NULL 字节
func sanitizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(s, "\x00", "")
}
