package dto

import (
	"strings"

	"github.com/google/uuid"

	"librarydesk_backend/internals/features/students/notes/model"
)

type NoteCreateRequest struct {
	Kind string `json:"kind" validate:"omitempty,oneof=note support_ticket"`
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

func (r NoteCreateRequest) ToModel(libraryID, studentID, authorID uuid.UUID) *model.StudentNoteModel {
	kind := model.NoteKind(r.Kind)
	if kind == "" {
		kind = model.NoteKindNote
	}
	return &model.StudentNoteModel{
		NoteLibraryID: libraryID,
		NoteStudentID: studentID,
		NoteAuthorID:  authorID,
		NoteKind:      kind,
		NoteBody:      strings.TrimSpace(r.Body),
	}
}

// NoteResponse carries the author's name for the history timeline.
type NoteResponse struct {
	model.StudentNoteModel
	AuthorName string `json:"author_name"`
}
