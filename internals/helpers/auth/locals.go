package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"librarydesk_backend/internals/helpers/apperror"
)

// Locals filled by middleware AuthJWT.
const (
	LocUserID    = "user_id"
	LocLibraryID = "library_id"
	LocRole      = "userRole"
	LocLibraryTZ = "library_timezone"
	LocRawToken  = "raw_token"
)

func uuidFromLocals(c *fiber.Ctx, key string) (uuid.UUID, error) {
	switch t := c.Locals(key).(type) {
	case uuid.UUID:
		if t != uuid.Nil {
			return t, nil
		}
	case string:
		if id, err := uuid.Parse(strings.TrimSpace(t)); err == nil && id != uuid.Nil {
			return id, nil
		}
	}
	return uuid.Nil, apperror.Unauthorized(key + " missing from token")
}

// GetUserIDFromToken returns the caller's user id.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return uuidFromLocals(c, LocUserID)
}

// GetLibraryIDFromToken returns the tenant every query must be scoped by.
func GetLibraryIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return uuidFromLocals(c, LocLibraryID)
}

func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocRole).(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func IsOwner(c *fiber.Ctx) bool { return GetRole(c) == "owner" }

// Caller bundles the three locals most handlers need.
type Caller struct {
	UserID    uuid.UUID
	LibraryID uuid.UUID
	Role      string
}

func (c Caller) IsOwner() bool { return c.Role == "owner" }

func GetCaller(c *fiber.Ctx) (Caller, error) {
	uid, err := GetUserIDFromToken(c)
	if err != nil {
		return Caller{}, err
	}
	lid, err := GetLibraryIDFromToken(c)
	if err != nil {
		return Caller{}, err
	}
	return Caller{UserID: uid, LibraryID: lid, Role: GetRole(c)}, nil
}

// GetRawAccessToken reads Authorization: Bearer first, then the access_token cookie.
func GetRawAccessToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocRawToken).(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return strings.TrimSpace(c.Cookies("access_token"))
}
