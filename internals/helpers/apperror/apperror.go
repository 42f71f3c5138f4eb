// file: internals/helpers/apperror/apperror.go
package apperror

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Kind string

const (
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindForbidden           Kind = "FORBIDDEN"
	KindBadRequest          Kind = "BAD_REQUEST"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindNotFound            Kind = "NOT_FOUND"
	KindInsufficientBalance Kind = "INSUFFICIENT_BALANCE"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindConflict            Kind = "CONFLICT"
	KindOperationFailed     Kind = "OPERATION_FAILED"
)

var kindStatus = map[Kind]int{
	KindUnauthorized:        fiber.StatusUnauthorized,
	KindForbidden:           fiber.StatusForbidden,
	KindBadRequest:          fiber.StatusBadRequest,
	KindValidation:          fiber.StatusUnprocessableEntity,
	KindNotFound:            fiber.StatusNotFound,
	KindInsufficientBalance: fiber.StatusUnprocessableEntity,
	KindInvalidTransition:   fiber.StatusConflict,
	KindConflict:            fiber.StatusConflict,
	KindOperationFailed:     fiber.StatusInternalServerError,
}

// Error is the single error type business code returns to controllers.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	cause   error
	status  int
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Cause() error  { return e.cause }
func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Status() int {
	if e.status != 0 {
		return e.status
	}
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// Is matches on kind so errors.Is(err, apperror.ErrNotFound) works with any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation          = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance, Message: "insufficient balance"}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition, Message: "invalid status transition"}
	ErrConflict            = &Error{Kind: KindConflict, Message: "conflict"}
	ErrOperationFailed     = &Error{Kind: KindOperationFailed, Message: "operation failed"}
)

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(KindForbidden, msg) }
func BadRequest(msg string) *Error   { return New(KindBadRequest, msg) }
func NotFound(what string) *Error    { return New(KindNotFound, what+" not found") }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }

func InsufficientBalance(msg string) *Error { return New(KindInsufficientBalance, msg) }
func InvalidTransition(msg string) *Error   { return New(KindInvalidTransition, msg) }

// Validation builds a 422 with a field map. Pass field, message pairs.
func Validation(msg string, pairs ...string) *Error {
	e := &Error{Kind: KindValidation, Message: msg, Fields: map[string][]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		e.Fields[pairs[i]] = append(e.Fields[pairs[i]], pairs[i+1])
	}
	return e
}

// OperationFailed keeps the cause for logs but never shows it to the client.
func OperationFailed(cause error, msg string) *Error {
	return &Error{Kind: KindOperationFailed, Message: msg, cause: errors.WithStack(cause)}
}

// FromValidator turns validator.ValidationErrors into a field map keyed by json-ish field names.
func FromValidator(err error) *Error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return BadRequest(err.Error())
	}
	out := Validation("validation failed")
	for _, fe := range ve {
		field := toSnake(fe.Field())
		out.Fields[field] = append(out.Fields[field], describeTag(fe))
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "e164", "phone":
		return "must be a valid phone number"
	}
	return "failed on " + fe.Tag()
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FromDB maps persistence errors: missing rows become NotFound, unique violations become
// Validation, anything else is an OperationFailed.
func FromDB(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := uniqueField(pgErr.ConstraintName)
		return Validation(what+" already registered", field, "already registered")
	}
	return OperationFailed(err, "failed to process "+what)
}

func uniqueField(constraint string) string {
	c := strings.ToLower(constraint)
	switch {
	case strings.Contains(c, "email"):
		return "email"
	case strings.Contains(c, "phone"):
		return "phone"
	case strings.Contains(c, "number"):
		return "number"
	case strings.Contains(c, "slug"):
		return "slug"
	}
	return "record"
}

// From coerces anything into an *Error for the HTTP layer.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return &Error{Kind: kindForStatus(fe.Code), Message: fe.Message, status: fe.Code}
	}
	if mapped, ok := FromDB(err, "record").(*Error); ok {
		return mapped
	}
	return OperationFailed(err, "operation failed")
}

func kindForStatus(status int) Kind {
	switch status {
	case fiber.StatusUnauthorized:
		return KindUnauthorized
	case fiber.StatusForbidden:
		return KindForbidden
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusUnprocessableEntity:
		return KindValidation
	case fiber.StatusConflict:
		return KindConflict
	}
	if status >= 500 {
		return KindOperationFailed
	}
	return KindBadRequest
}
