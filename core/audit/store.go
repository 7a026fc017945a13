// Package audit persists a queryable history of dispatch firings so
// operators can reconstruct what the engine did and when.
package audit

import (
	"context"
	"time"
)

// TaskRef identifies one task created by a firing.
type TaskRef struct {
	TaskID      string `json:"task_id"`
	PersonnelID string `json:"personnel_id"`
	FormID      string `json:"form_id"`
}

// Record describes one firing of a dispatch.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	DispatchID   string    `json:"dispatch_id"`
	DispatchTime time.Time `json:"dispatch_time"`
	Manual       bool      `json:"manual"`
	TaskCount    int       `json:"task_count"`
	Tasks        []TaskRef `json:"tasks"`
}

// Query filters firing records. Zero-valued fields are ignored.
type Query struct {
	Start      time.Time
	End        time.Time
	DispatchID string
}

// Store persists firing records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.DispatchID != "" && r.DispatchID != q.DispatchID {
		return false
	}
	return true
}
