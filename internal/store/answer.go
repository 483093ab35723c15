package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// answerRepo implements AnswerRepo on SQLite.
type answerRepo struct {
	db *sql.DB
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *answerRepo) Append(ctx context.Context, rec AnswerRecord) error {
	return insertAnswer(ctx, r.db, rec)
}

func insertAnswer(ctx context.Context, ex execer, rec AnswerRecord) error {
	if rec.Flow == "" {
		rec.Flow = FlowAssessment
	}
	query, args := builder.Insert(answersTable).
		Columns("user_id", "question", "user_answer", "is_correct", "flow", "timestamp").
		Values(rec.UserID, rec.Question, rec.Answer, rec.Correct, string(rec.Flow), rec.Timestamp).
		Query()
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append answer for %d: %w", rec.UserID, err)
	}
	return nil
}

func (r *answerRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]AnswerRecord, error) {
	sel := builder.Select("answer_id", "user_id", "question", "user_answer", "is_correct", "flow", "timestamp").
		From(builder.Table(answersTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("answer_id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list answers for %d: %w", userID, err)
	}
	defer rows.Close()

	var out []AnswerRecord
	for rows.Next() {
		var (
			rec  AnswerRecord
			flow string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Question, &rec.Answer, &rec.Correct, &flow, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		rec.Flow = Flow(flow)
		out = append(out, rec)
	}
	return out, rows.Err()
}
