package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/tutorbot/internal/level"
)

// userRepo implements UserRepo on SQLite.
type userRepo struct {
	db *sql.DB
}

var userColumns = []string{
	"user_id", "score", "name", "level", "current_question",
	"join_time", "last_assessment", "task_interval", "is_expert",
}

func (r *userRepo) Create(ctx context.Context, u *User) error {
	query, args := builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			u.ID, u.Score, u.Name, string(u.Level), nullString(u.CurrentQuestion),
			u.JoinTime, u.LastAssessment, u.TaskInterval, u.Level.IsExpert(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user %d: %w", u.ID, err)
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id int64) (*User, error) {
	query, args := builder.Select(userColumns...).
		From(builder.Table(usersTable)).
		Where(entsql.EQ("user_id", id)).
		Query()

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) ListSchedule(ctx context.Context) ([]ScheduleEntry, error) {
	query, args := builder.Select("user_id", "level", "last_assessment", "task_interval", "current_question").
		From(builder.Table(usersTable)).
		OrderBy("user_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	defer rows.Close()

	var out []ScheduleEntry
	for rows.Next() {
		var (
			e       ScheduleEntry
			lvl     string
			pending sql.NullString
		)
		if err := rows.Scan(&e.UserID, &lvl, &e.LastAssessment, &e.TaskInterval, &pending); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		e.Level = level.Level(lvl)
		e.CurrentQuestion = pending.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *userRepo) AssignTask(ctx context.Context, id int64, question string, at time.Time) (bool, error) {
	query, args := builder.Update(usersTable).
		Set("current_question", question).
		Set("last_assessment", at).
		Where(entsql.And(
			entsql.EQ("user_id", id),
			entsql.IsNull("current_question"),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("assign task to %d: %w", id, err)
	}
	return rowsAffected(res)
}

func (r *userRepo) SettleTask(ctx context.Context, s TaskSettlement) (settled bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin settle: %w", err)
	}
	defer func() {
		if !settled {
			_ = tx.Rollback()
		}
	}()

	query, args := builder.Update(usersTable).
		Set("score", s.Score).
		Set("level", string(s.Level)).
		Set("is_expert", s.Level.IsExpert()).
		SetNull("current_question").
		Set("last_assessment", s.At).
		Where(entsql.And(
			entsql.EQ("user_id", s.UserID),
			entsql.EQ("current_question", s.Question),
		)).
		Query()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("settle task for %d: %w", s.UserID, err)
	}
	ok, err := rowsAffected(res)
	if err != nil || !ok {
		return false, err
	}

	if err := insertAnswer(ctx, tx, AnswerRecord{
		UserID:    s.UserID,
		Question:  s.Question,
		Answer:    s.Answer,
		Correct:   s.Correct,
		Flow:      FlowDailyTask,
		Timestamp: s.At,
	}); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit settle: %w", err)
	}
	return true, nil
}

func (r *userRepo) ClearTask(ctx context.Context, id int64) (bool, error) {
	query, args := builder.Update(usersTable).
		SetNull("current_question").
		Where(entsql.And(
			entsql.EQ("user_id", id),
			entsql.NotNull("current_question"),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("clear task for %d: %w", id, err)
	}
	return rowsAffected(res)
}

func (r *userRepo) SetInterval(ctx context.Context, id int64, hours int) (bool, error) {
	query, args := builder.Update(usersTable).
		Set("task_interval", hours).
		Where(entsql.EQ("user_id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set interval for %d: %w", id, err)
	}
	return rowsAffected(res)
}

func (r *userRepo) Delete(ctx context.Context, id int64) (bool, error) {
	query, args := builder.Delete(usersTable).
		Where(entsql.EQ("user_id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", id, err)
	}
	return rowsAffected(res)
}

func (r *userRepo) Top(ctx context.Context, n int) ([]User, error) {
	query, args := builder.Select(userColumns...).
		From(builder.Table(usersTable)).
		OrderBy(entsql.Desc("score"), "join_time").
		Limit(n).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u       User
		lvl     string
		pending sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Score, &u.Name, &lvl, &pending,
		&u.JoinTime, &u.LastAssessment, &u.TaskInterval, &u.IsExpert,
	)
	if err != nil {
		return nil, err
	}
	u.Level = level.Level(lvl)
	u.CurrentQuestion = pending.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
