// internals/helpers/oss/oss_file_service.go
package helper

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/*
BlobService is what controllers depend on. Objects are always stored under
libraries/<library_id>/<slot>/ so one tenant never reads another's files.
*/
type BlobService interface {
	// UploadImage re-encodes to webp.
	UploadImage(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (publicURL string, err error)
	// UploadAny re-encodes images and stores everything else as-is.
	UploadAny(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (publicURL string, err error)
	DeleteByPublicURL(ctx context.Context, publicURL string) error
}

// Slots
const (
	SlotHandoverProof = "handover-proofs"
	SlotPaymentProof  = "payment-proofs"
	SlotIDDocument    = "id-documents"
)

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true,
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

func scopedDir(libraryID uuid.UUID, slot string) (string, error) {
	if libraryID == uuid.Nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "library_id is required")
	}
	slot = strings.Trim(strings.TrimSpace(slot), "/")
	if slot == "" {
		slot = "misc"
	}
	return fmt.Sprintf("libraries/%s/%s", libraryID, slot), nil
}

// ValidateUpload checks size and extension before any bytes are read.
func ValidateUpload(fh *multipart.FileHeader) error {
	if fh == nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if fh.Size > MaxUploadSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file is larger than 5MB")
	}
	if !allowedExt[strings.ToLower(filepath.Ext(fh.Filename))] {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "only jpg, png, webp or pdf are accepted")
	}
	return nil
}

/* ===== OSS implementation ===== */

type OSSBlobService struct {
	svc *OSSService
}

func NewOSSBlobServiceFromEnv(prefix string) (*OSSBlobService, error) {
	s, err := NewOSSServiceFromEnv(prefix)
	if err != nil {
		return nil, err
	}
	return &OSSBlobService{svc: s}, nil
}

func (b *OSSBlobService) UploadImage(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if err := ValidateUpload(fh); err != nil {
		return "", err
	}
	dir, err := scopedDir(libraryID, slot)
	if err != nil {
		return "", err
	}
	return b.svc.UploadAsWebP(ctx, dir, fh)
}

func (b *OSSBlobService) UploadAny(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if err := ValidateUpload(fh); err != nil {
		return "", err
	}
	dir, err := scopedDir(libraryID, slot)
	if err != nil {
		return "", err
	}
	if isImageExt(strings.ToLower(filepath.Ext(fh.Filename))) {
		return b.svc.UploadAsWebP(ctx, dir, fh)
	}
	return b.svc.UploadRaw(ctx, dir, fh)
}

func (b *OSSBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	return b.svc.DeleteByPublicURL(ctx, publicURL)
}

// ErrStorageDisabled is returned by every call when ALI_OSS_* is not configured.
var ErrStorageDisabled = fiber.NewError(fiber.StatusServiceUnavailable, "file storage is not configured")

type disabledBlobService struct{}

func (disabledBlobService) UploadImage(context.Context, uuid.UUID, string, *multipart.FileHeader) (string, error) {
	return "", ErrStorageDisabled
}

func (disabledBlobService) UploadAny(context.Context, uuid.UUID, string, *multipart.FileHeader) (string, error) {
	return "", ErrStorageDisabled
}

func (disabledBlobService) DeleteByPublicURL(context.Context, string) error { return nil }

// NewBlobServiceFromEnv falls back to a disabled store so the API still boots without OSS.
func NewBlobServiceFromEnv(prefix string) BlobService {
	b, err := NewOSSBlobServiceFromEnv(prefix)
	if err != nil {
		log.Printf("⚠️ OSS disabled: %v", err)
		return disabledBlobService{}
	}
	log.Println("✅ OSS blob storage ready")
	return b
}

/* ===== Multipart helpers ===== */

func IsMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	return strings.HasPrefix(ct, "multipart/form-data")
}

var defaultFileFields = []string{"file", "attachment", "document", "image", "proof"}

// GetUploadFile returns the first file found under fieldNames (or the usual names).
func GetUploadFile(c *fiber.Ctx, fieldNames ...string) (*multipart.FileHeader, error) {
	if !IsMultipart(c) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "use multipart/form-data")
	}
	names := fieldNames
	if len(names) == 0 {
		names = defaultFileFields
	}
	for _, fn := range names {
		if fh, err := c.FormFile(fn); err == nil && fh != nil {
			return fh, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "file is required")
}

/* ===== Mock for tests ===== */

type MockBlobService struct {
	UploadImageFn func(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error)
	UploadAnyFn   func(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error)
	DeleteFn      func(ctx context.Context, publicURL string) error
}

func (m *MockBlobService) UploadImage(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if m.UploadImageFn != nil {
		return m.UploadImageFn(ctx, libraryID, slot, fh)
	}
	return fmt.Sprintf("https://blob.test/libraries/%s/%s/%s", libraryID, slot, fh.Filename), nil
}

func (m *MockBlobService) UploadAny(ctx context.Context, libraryID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if m.UploadAnyFn != nil {
		return m.UploadAnyFn(ctx, libraryID, slot, fh)
	}
	return fmt.Sprintf("https://blob.test/libraries/%s/%s/%s", libraryID, slot, fh.Filename), nil
}

func (m *MockBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, publicURL)
	}
	return nil
}
