package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/students/notes/dto"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
)

// NoteController serves the append-only notes and support tickets of a student.
type NoteController struct {
	DB *gorm.DB
}

func NewNoteController(db *gorm.DB) *NoteController {
	return &NoteController{DB: db}
}

// GET /api/a/students/:id/notes?kind=
func (h *NoteController) List(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	ctx := c.Context()
	if _, err := studentRepo.NewGormRepository(h.DB).Find(ctx, libraryID, id); err != nil {
		return apperror.FromDB(err, "student")
	}

	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)
	q := h.DB.WithContext(ctx).Table("student_notes n").
		Where("n.note_library_id = ? AND n.note_student_id = ?", libraryID, id)
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("n.note_kind = ?", kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "note")
	}
	rows := []dto.NoteResponse{}
	if err := q.Select("n.*, COALESCE(u.user_name, '') AS author_name").
		Joins("LEFT JOIN users u ON u.user_id = n.note_author_id").
		Order("n.note_created_at DESC").Limit(p.Limit()).Offset(p.Offset()).Scan(&rows).Error; err != nil {
		return apperror.FromDB(err, "note")
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

// POST /api/a/students/:id/notes
func (h *NoteController) Create(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	var req dto.NoteCreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.Context()
	if _, err := studentRepo.NewGormRepository(h.DB).Find(ctx, caller.LibraryID, id); err != nil {
		return apperror.FromDB(err, "student")
	}

	m := req.ToModel(caller.LibraryID, id, caller.UserID)
	if err := h.DB.WithContext(ctx).Create(m).Error; err != nil {
		return apperror.FromDB(err, "note")
	}
	name, _ := c.Locals("user_name").(string)
	return helper.JsonCreated(c, "note added", dto.NoteResponse{StudentNoteModel: *m, AuthorName: name})
}
