// Package model defines domain entities for the application.
package model

import (
	"time"
)

// MaxTitleLength is the maximum length of a task title, matching the column size.
const MaxTitleLength = 255

// Task is a to-do item.
// Field tags map it both to the tarefas table and to the public JSON contract.
type Task struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"titulo" json:"titulo"`
	Description *string   `db:"descricao" json:"descricao"`
	Completed   bool      `db:"concluida" json:"concluida"`
	CreatedAt   time.Time `db:"data_criacao" json:"dataCriacao"`
}

// DescriptionOrEmpty returns the description, or "" when it is unset.
func (t *Task) DescriptionOrEmpty() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
