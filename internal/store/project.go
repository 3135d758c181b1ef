package store

import (
	"time"

	"github.com/google/uuid"

	"netval/pkg/model"
	"netval/pkg/util"
)

// CreateProject inserts a new project, assigning an id if p.ID is empty.
func (s *Store) CreateProject(p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.NamedExec(`
		INSERT INTO projects (id, name, description, created_at, updated_at)
		VALUES (:id, :name, :description, :created_at, :updated_at)`, p)
	return wrapStorageErr("CreateProject", err)
}

// GetProject fetches a project by id.
func (s *Store) GetProject(id string) (*model.Project, error) {
	var p model.Project
	err := s.db.Get(&p, `SELECT * FROM projects WHERE id = ?`, id)
	if err != nil {
		return nil, wrapStorageErr("GetProject", err)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by name for deterministic output.
func (s *Store) ListProjects() ([]*model.Project, error) {
	var projects []*model.Project
	err := s.db.Select(&projects, `SELECT * FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, wrapStorageErr("ListProjects", err)
	}
	return projects, nil
}

// UpdateProject updates a project's mutable fields.
func (s *Store) UpdateProject(p *model.Project) error {
	unlock := s.lockProject(p.ID)
	defer unlock()

	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExec(`
		UPDATE projects SET name = :name, description = :description, updated_at = :updated_at
		WHERE id = :id`, p)
	if err != nil {
		return wrapStorageErr("UpdateProject", err)
	}
	return checkRowsAffected(res, "UpdateProject")
}

// DeleteProject removes a project and cascades to every entity it owns.
func (s *Store) DeleteProject(id string) error {
	unlock := s.lockProject(id)
	defer unlock()

	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return wrapStorageErr("DeleteProject", err)
	}
	return checkRowsAffected(res, "DeleteProject")
}

func checkRowsAffected(res interface {
	RowsAffected() (int64, error)
}, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStorageErr(op, err)
	}
	if n == 0 {
		return util.ErrNotFound
	}
	return nil
}
