package model

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a SimulationJob or any other job kind
// tracked by the job manager.
type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// Terminal reports whether status is a terminal job state.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// JobKind distinguishes the three job families the job manager multiplexes
// progress events for.
type JobKind string

const (
	KindSimulation  JobKind = "simulation"
	KindIngestion   JobKind = "ingestion"
	KindRemediation JobKind = "remediation"
)

// SimulationJob tracks one run of the validation engine over a project's
// topology. Result, once present, is fully self-describing:
// it can be rendered without re-reading the topology.
type SimulationJob struct {
	ID          string          `json:"id" db:"id"`
	ProjectID   string          `json:"project_id" db:"project_id"`
	Kind        JobKind         `json:"kind" db:"kind"`
	Status      JobStatus       `json:"status" db:"status"`
	Result      json.RawMessage `json:"result,omitempty" db:"result"`
	StartedAt   *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}
