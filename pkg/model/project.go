// Package model defines the canonical topology entities: the graph-shaped
// data model of projects, devices, interfaces, links, snapshots, jobs, and
// remediation plans that the store, assembler, and check engine all share.
package model

import "time"

// Project is the root of the ownership tree. Deleting a Project cascades to
// every entity it owns and revokes the associated credential references.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
