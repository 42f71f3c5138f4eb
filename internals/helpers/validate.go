// file: internals/helpers/validate.go
package helper

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"librarydesk_backend/internals/helpers/apperror"
)

// Validate is shared by every controller. Field errors are keyed by json name.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// BindJSON parses the body into dst and runs struct validation.
func BindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := Validate.Struct(dst); err != nil {
		return apperror.FromValidator(err)
	}
	return nil
}

// BindQuery is BindJSON for the query string.
func BindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return apperror.BadRequest("invalid query")
	}
	if err := Validate.Struct(dst); err != nil {
		return apperror.FromValidator(err)
	}
	return nil
}

// ParamUUID reads a path param as a uuid. A malformed id is a 404 like any other miss.
func ParamUUID(c *fiber.Ctx, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, apperror.NotFound(what)
	}
	return id, nil
}

// OptionalUUID parses a filter id; empty means no filter.
func OptionalUUID(raw, field string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid "+field, field, "must be a uuid")
	}
	return &id, nil
}
