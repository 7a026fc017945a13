// Package store provides persistent implementations of the core store
// interfaces.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tguellec/qcdispatch/core/model"
	corestore "github.com/tguellec/qcdispatch/core/store"
)

// SQLiteStore persists dispatches and tasks in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS dispatches (
        id TEXT PRIMARY KEY,
        active INTEGER NOT NULL,
        executed_count INTEGER NOT NULL,
        descriptor TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS tasks (
        id TEXT PRIMARY KEY,
        dispatch_id TEXT NOT NULL,
        personnel_id TEXT NOT NULL,
        form_id TEXT NOT NULL,
        dispatch_time INTEGER NOT NULL,
        status TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// descriptorRecord is the JSON shape stored in the descriptor column. The
// schedule kind is a tag; an unknown tag decodes to a nil schedule so the
// evaluator fails closed on it.
type descriptorRecord struct {
	Kind            string    `json:"kind,omitempty"`
	Days            []string  `json:"days,omitempty"`
	TimeOfDay       string    `json:"time_of_day,omitempty"`
	Start           time.Time `json:"start,omitempty"`
	IntervalMinutes int       `json:"interval_minutes,omitempty"`
	RepeatCount     int       `json:"repeat_count,omitempty"`
	PersonnelIDs    []string  `json:"personnel_ids"`
	FormIDs         []string  `json:"form_ids"`
}

func encodeDescriptor(d model.Dispatch) ([]byte, error) {
	rec := descriptorRecord{
		PersonnelIDs: d.PersonnelIDs,
		FormIDs:      d.FormIDs,
	}
	switch s := d.Schedule.(type) {
	case model.SpecificDays:
		rec.Kind = s.Kind()
		rec.TimeOfDay = s.TimeOfDay
		for _, day := range s.Days {
			rec.Days = append(rec.Days, model.WeekdayName(day))
		}
	case model.Interval:
		rec.Kind = s.Kind()
		rec.Start = s.Start
		rec.IntervalMinutes = s.IntervalMinutes
		rec.RepeatCount = s.RepeatCount
	}
	return json.Marshal(rec)
}

func decodeDescriptor(id string, active bool, executed int, raw []byte) (model.Dispatch, error) {
	var rec descriptorRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Dispatch{}, fmt.Errorf("decode dispatch %s: %w", id, err)
	}
	d := model.Dispatch{
		ID:            id,
		Active:        active,
		ExecutedCount: executed,
		PersonnelIDs:  rec.PersonnelIDs,
		FormIDs:       rec.FormIDs,
	}
	switch rec.Kind {
	case model.SpecificDays{}.Kind():
		s := model.SpecificDays{TimeOfDay: rec.TimeOfDay}
		for _, name := range rec.Days {
			day, err := model.ParseWeekday(name)
			if err != nil {
				// Malformed stored data: leave the schedule nil.
				return d, nil
			}
			s.Days = append(s.Days, day)
		}
		d.Schedule = s
	case model.Interval{}.Kind():
		d.Schedule = model.Interval{
			Start:           rec.Start,
			IntervalMinutes: rec.IntervalMinutes,
			RepeatCount:     rec.RepeatCount,
		}
	}
	return d, nil
}

// FindActive returns all dispatches marked active.
func (s *SQLiteStore) FindActive(ctx context.Context) ([]model.Dispatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, active, executed_count, descriptor FROM dispatches WHERE active = 1`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Dispatch
	for rows.Next() {
		var (
			id       string
			active   bool
			executed int
			raw      []byte
		)
		if err := rows.Scan(&id, &active, &executed, &raw); err != nil {
			return nil, err
		}
		d, err := decodeDescriptor(id, active, executed, raw)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// Find returns the dispatch with the given id or core/store.ErrNotFound.
func (s *SQLiteStore) Find(ctx context.Context, id string) (model.Dispatch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT active, executed_count, descriptor FROM dispatches WHERE id = ?`, id)
	var (
		active   bool
		executed int
		raw      []byte
	)
	if err := row.Scan(&active, &executed, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Dispatch{}, corestore.ErrNotFound
		}
		return model.Dispatch{}, err
	}
	return decodeDescriptor(id, active, executed, raw)
}

// Save inserts or replaces the dispatch.
func (s *SQLiteStore) Save(ctx context.Context, d model.Dispatch) error {
	raw, err := encodeDescriptor(d)
	if err != nil {
		return fmt.Errorf("encode dispatch %s: %w", d.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO dispatches (id, active, executed_count, descriptor) VALUES (?, ?, ?, ?)`,
		d.ID, d.Active, d.ExecutedCount, raw)
	return err
}

// SaveBatch inserts all tasks in one transaction so a firing is stored
// entirely or not at all.
func (s *SQLiteStore) SaveBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (id, dispatch_id, personnel_id, form_id, dispatch_time, status) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, t := range tasks {
		if _, err := stmt.ExecContext(ctx, t.ID, t.DispatchID, t.PersonnelID, t.FormID, t.DispatchTime.UnixNano(), string(t.Status)); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// TasksByDispatch returns the stored tasks for one dispatch, newest first.
func (s *SQLiteStore) TasksByDispatch(ctx context.Context, dispatchID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dispatch_id, personnel_id, form_id, dispatch_time, status FROM tasks WHERE dispatch_id = ? ORDER BY dispatch_time DESC`,
		dispatchID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Task
	for rows.Next() {
		var (
			t      model.Task
			nanos  int64
			status string
		)
		if err := rows.Scan(&t.ID, &t.DispatchID, &t.PersonnelID, &t.FormID, &nanos, &status); err != nil {
			return nil, err
		}
		t.DispatchTime = time.Unix(0, nanos)
		t.Status = model.TaskStatus(status)
		res = append(res, t)
	}
	return res, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
