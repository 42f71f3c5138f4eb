package model

import (
	"time"

	"github.com/google/uuid"
)

type NoteKind string

const (
	NoteKindNote          NoteKind = "note"
	NoteKindSupportTicket NoteKind = "support_ticket"
)

// StudentNoteModel rows are never updated or deleted individually.
type StudentNoteModel struct {
	NoteID        uuid.UUID `gorm:"column:note_id;type:uuid;default:gen_random_uuid();primaryKey" json:"note_id"`
	NoteLibraryID uuid.UUID `gorm:"column:note_library_id;type:uuid;not null;index" json:"note_library_id"`
	NoteStudentID uuid.UUID `gorm:"column:note_student_id;type:uuid;not null;index" json:"note_student_id"`
	NoteAuthorID  uuid.UUID `gorm:"column:note_author_id;type:uuid;not null" json:"note_author_id"`
	NoteKind      NoteKind  `gorm:"column:note_kind;type:varchar(16);not null;default:'note'" json:"note_kind"`
	NoteBody      string    `gorm:"column:note_body;type:text;not null" json:"note_body"`

	CreatedAt time.Time `gorm:"column:note_created_at;autoCreateTime" json:"note_created_at"`
}

func (StudentNoteModel) TableName() string { return "student_notes" }
