package store

import (
	"time"

	"github.com/google/uuid"

	"netval/pkg/model"
)

type jobRow struct {
	ID          string     `db:"id"`
	ProjectID   string     `db:"project_id"`
	Kind        string     `db:"kind"`
	Status      string     `db:"status"`
	Result      string     `db:"result"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

func toJobRow(j *model.SimulationJob) jobRow {
	return jobRow{
		ID: j.ID, ProjectID: j.ProjectID, Kind: string(j.Kind), Status: string(j.Status),
		Result: string(j.Result), StartedAt: j.StartedAt, CompletedAt: j.CompletedAt,
	}
}

func fromJobRow(r jobRow) *model.SimulationJob {
	j := &model.SimulationJob{
		ID: r.ID, ProjectID: r.ProjectID, Kind: model.JobKind(r.Kind), Status: model.JobStatus(r.Status),
		StartedAt: r.StartedAt, CompletedAt: r.CompletedAt,
	}
	if r.Result != "" {
		j.Result = []byte(r.Result)
	}
	return j
}

// CreateJob inserts a new job record in the queued state.
func (s *Store) CreateJob(j *model.SimulationJob) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	row := toJobRow(j)
	_, err := s.db.NamedExec(`
		INSERT INTO simulation_jobs (id, project_id, kind, status, result, started_at, completed_at)
		VALUES (:id, :project_id, :kind, :status, :result, :started_at, :completed_at)`, row)
	return wrapStorageErr("CreateJob", err)
}

// GetJob fetches a job by id.
func (s *Store) GetJob(id string) (*model.SimulationJob, error) {
	var row jobRow
	if err := s.db.Get(&row, `SELECT * FROM simulation_jobs WHERE id = ?`, id); err != nil {
		return nil, wrapStorageErr("GetJob", err)
	}
	return fromJobRow(row), nil
}

// ListJobs returns every job in a project, most recently started first.
func (s *Store) ListJobs(projectID string) ([]*model.SimulationJob, error) {
	var rows []jobRow
	err := s.db.Select(&rows,
		`SELECT * FROM simulation_jobs WHERE project_id = ? ORDER BY started_at DESC, id`, projectID)
	if err != nil {
		return nil, wrapStorageErr("ListJobs", err)
	}
	out := make([]*model.SimulationJob, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromJobRow(r))
	}
	return out, nil
}

// FailRunningJobs marks every queued or running job failed, stamping its
// completion time. Called during graceful shutdown and at startup to clean up after a
// crash mid-job.
func (s *Store) FailRunningJobs() (int64, error) {
	res, err := s.db.Exec(`
		UPDATE simulation_jobs SET status = ?, completed_at = ?
		WHERE status IN (?, ?)`,
		model.JobFailed, time.Now().UTC(), model.JobQueued, model.JobRunning)
	if err != nil {
		return 0, wrapStorageErr("FailRunningJobs", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// UpdateJobStatus transitions a job's status and, on a terminal transition,
// records its result payload and completion time.
func (s *Store) UpdateJobStatus(j *model.SimulationJob) error {
	row := toJobRow(j)
	res, err := s.db.NamedExec(`
		UPDATE simulation_jobs SET status = :status, result = :result,
			started_at = :started_at, completed_at = :completed_at
		WHERE id = :id`, row)
	if err != nil {
		return wrapStorageErr("UpdateJobStatus", err)
	}
	return checkRowsAffected(res, "UpdateJobStatus")
}
