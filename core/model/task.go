package model

import "time"

// TaskStatus tracks the downstream lifecycle of a dispatched task. The engine
// only ever creates tasks in the pending state; transitions belong to the
// consuming application.
type TaskStatus string

// TaskStatusPending marks a freshly dispatched, not yet submitted task.
const TaskStatusPending TaskStatus = "PENDING"

// Task is one QC test assignment produced by a firing, one per
// personnel and form pair. All tasks of a firing share one DispatchTime.
type Task struct {
	ID           string     `json:"id"`
	DispatchID   string     `json:"dispatch_id"`
	PersonnelID  string     `json:"personnel_id"`
	FormID       string     `json:"form_id"`
	DispatchTime time.Time  `json:"dispatch_time"`
	Status       TaskStatus `json:"status"`
}
