package queue

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// transitions lists every allowed status change. running -> pending is the
// transient-retry edge; terminal statuses have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusSucceeded, StatusFailed, StatusPending},
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

// Job is a durable unit of work.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	Kind         string          `json:"kind"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Status       Status          `json:"status"`
	AttemptCount int             `json:"attempt_count"`
	MaxAttempts  int             `json:"max_attempts"`
	CreatedAt    time.Time       `json:"created_at"`
	NextRunAt    time.Time       `json:"next_run_at"`
	LockedUntil  *time.Time      `json:"locked_until,omitempty"`
	LockedBy     *uuid.UUID      `json:"locked_by,omitempty"`
	LastError    *string         `json:"last_error,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// Due reports whether a pending job is scheduled at or before now.
func (j *Job) Due(now time.Time) bool {
	return j.Status == StatusPending && !j.NextRunAt.After(now)
}

// LeaseExpired reports whether a running job's lease ended before now.
func (j *Job) LeaseExpired(now time.Time) bool {
	return j.Status == StatusRunning && j.LockedUntil != nil && j.LockedUntil.Before(now)
}

// JobFilter narrows ListJobs results. Zero values match everything.
type JobFilter struct {
	Status Status
	Kind   string
	Limit  int
}
