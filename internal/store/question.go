package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/tutorbot/internal/level"
)

// questionRepo implements QuestionRepo on SQLite.
type questionRepo struct {
	db *sql.DB
}

func (r *questionRepo) Seed(ctx context.Context, qs []Question) (int, error) {
	if len(qs) == 0 {
		return 0, nil
	}
	ins := builder.Insert(questionsTable).Columns("question", "q_level")
	for _, q := range qs {
		ins = ins.Values(q.Text, string(q.Level))
	}
	query, args := ins.
		OnConflict(entsql.ConflictColumns("question"), entsql.DoNothing()).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (r *questionRepo) Insert(ctx context.Context, text string, lvl level.Level) (bool, error) {
	n, err := r.Seed(ctx, []Question{{Text: text, Level: lvl}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *questionRepo) Delete(ctx context.Context, id int) error {
	query, args := builder.Delete(questionsTable).
		Where(entsql.EQ("q_id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *questionRepo) List(ctx context.Context) ([]Question, error) {
	query, args := builder.Select("q_id", "question", "q_level").
		From(builder.Table(questionsTable)).
		OrderBy("q_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var (
			q   Question
			lvl string
		)
		if err := rows.Scan(&q.ID, &q.Text, &lvl); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Level = level.Level(lvl)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *questionRepo) ListByLevel(ctx context.Context, lvl level.Level) ([]string, error) {
	query, args := builder.Select("question").
		From(builder.Table(questionsTable)).
		Where(entsql.EQ("q_level", string(lvl))).
		OrderBy("q_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s questions: %w", lvl, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}
