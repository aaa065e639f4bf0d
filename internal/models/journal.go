package models

import "time"

const (
	MutationCreate = "create"
	MutationDelete = "delete"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type MutationKind = string
type MutationOutcome = string

// JournalEntry records one settled mark mutation.
type JournalEntry struct {
	ID          string       `gorm:"primaryKey"`
	Kind        MutationKind `gorm:"index"`
	SchoolboyID int          `gorm:"index:idx_journal_pair"`
	ColumnID    int          `gorm:"index:idx_journal_pair"`
	Outcome     MutationOutcome
	Error       string
	CreatedAt   time.Time `gorm:"index"`
}
