package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"netval/internal/metrics"
	"netval/pkg/check"
	"netval/pkg/model"
	"netval/pkg/topology"
	"netval/pkg/util"
)

// Store is the narrow persistence interface Manager needs, satisfied by
// *internal/store.Store.
type Store interface {
	CreateJob(j *model.SimulationJob) error
	UpdateJobStatus(j *model.SimulationJob) error
	GetJob(id string) (*model.SimulationJob, error)
	ListJobs(projectID string) ([]*model.SimulationJob, error)
}

// Manager runs jobs against the validation engine, SSH pool, and
// remediation applicator, persisting status transitions through Store and
// streaming progress through Hub.
type Manager struct {
	store Store
	hub   *Hub
	topo  topology.DataStore
}

// NewManager builds a Manager. store persists job rows, hub fans out
// progress events, topo supplies the data topology.Assemble needs.
func NewManager(store Store, hub *Hub, topo topology.DataStore) *Manager {
	return &Manager{store: store, hub: hub, topo: topo}
}

// StartSimulation creates a queued simulation job and runs it in a new
// goroutine, returning immediately with the job id.
func (m *Manager) StartSimulation(ctx context.Context, projectID string) (*model.SimulationJob, error) {
	j := &model.SimulationJob{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Kind:      model.KindSimulation,
		Status:    model.JobQueued,
	}
	if err := m.store.CreateJob(j); err != nil {
		return nil, err
	}
	metrics.JobsStarted.WithLabelValues(string(model.KindSimulation)).Inc()
	go m.runSimulation(j.ID, projectID)
	return j, nil
}

func (m *Manager) runSimulation(jobID, projectID string) {
	m.markRunning(jobID)

	// Assembly reads the topology exactly once; concurrent edits after this
	// point cannot race the result. Assembly failure is the one
	// condition that fails the whole job.
	graph, err := topology.Assemble(m.topo, projectID)
	if err != nil {
		m.fail(jobID, err)
		return
	}

	result := check.RunWithProgress(graph, func(c check.Check, done bool) {
		kind := EventCheckStart
		if done {
			kind = EventCheckComplete
		}
		m.hub.Publish(Event{JobID: jobID, Kind: kind, Detail: c.CheckID()})
	})

	payload, err := json.Marshal(result)
	if err != nil {
		m.fail(jobID, err)
		return
	}
	m.complete(jobID, payload)
}

func (m *Manager) markRunning(jobID string) {
	j, err := m.store.GetJob(jobID)
	if err != nil {
		util.WithField("job_id", jobID).Errorf("reloading job before start: %v", err)
		return
	}
	now := time.Now().UTC()
	j.Status = model.JobRunning
	j.StartedAt = &now
	if err := m.store.UpdateJobStatus(j); err != nil {
		util.WithField("job_id", jobID).Errorf("persisting job start: %v", err)
	}
}

func (m *Manager) complete(jobID string, payload json.RawMessage) {
	j, err := m.store.GetJob(jobID)
	if err != nil {
		util.WithField("job_id", jobID).Errorf("reloading job before completion: %v", err)
		return
	}
	now := time.Now().UTC()
	j.Status = model.JobComplete
	j.Result = payload
	j.CompletedAt = &now
	if err := m.store.UpdateJobStatus(j); err != nil {
		util.WithField("job_id", jobID).Errorf("persisting job completion: %v", err)
	}
	metrics.JobsCompleted.WithLabelValues(string(j.Kind), "complete").Inc()
	m.hub.Publish(Event{JobID: jobID, Kind: EventComplete, Payload: payload})
}

func (m *Manager) fail(jobID string, cause error) {
	j, err := m.store.GetJob(jobID)
	if err != nil {
		util.WithField("job_id", jobID).Errorf("reloading job before failure: %v", err)
		return
	}
	now := time.Now().UTC()
	j.Status = model.JobFailed
	j.CompletedAt = &now
	if err := m.store.UpdateJobStatus(j); err != nil {
		util.WithField("job_id", jobID).Errorf("persisting job failure: %v", err)
	}
	metrics.JobsCompleted.WithLabelValues(string(j.Kind), "failed").Inc()
	m.hub.Publish(Event{JobID: jobID, Kind: EventFailed, Detail: cause.Error()})
}
