package helper

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AccessClaims is what the access token carries. Everything tenant-scoped hangs off LibraryID.
type AccessClaims struct {
	UserID    uuid.UUID
	LibraryID uuid.UUID
	Role      string
	Name      string
	Timezone  string
}

func IssueAccessToken(secret string, ttl time.Duration, cl AccessClaims, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":        cl.UserID.String(),
		"id":         cl.UserID.String(),
		"library_id": cl.LibraryID.String(),
		"role":       cl.Role,
		"user_name":  cl.Name,
		"tz":         cl.Timezone,
		"iat":        now.Unix(),
		"exp":        exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign access token")
	}
	return signed, exp, nil
}

func ParseAccessToken(secret, raw string) (AccessClaims, time.Time, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return AccessClaims{}, time.Time{}, errors.New("invalid token")
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, time.Time{}, errors.New("invalid token claims")
	}

	str := func(k string) string {
		s, _ := mc[k].(string)
		return strings.TrimSpace(s)
	}
	uid, err := uuid.Parse(str("sub"))
	if err != nil {
		return AccessClaims{}, time.Time{}, errors.New("invalid subject")
	}
	lid, err := uuid.Parse(str("library_id"))
	if err != nil {
		return AccessClaims{}, time.Time{}, errors.New("invalid library_id")
	}
	var exp time.Time
	if f, ok := mc["exp"].(float64); ok {
		exp = time.Unix(int64(f), 0)
	}
	return AccessClaims{
		UserID:    uid,
		LibraryID: lid,
		Role:      strings.ToLower(str("role")),
		Name:      str("user_name"),
		Timezone:  str("tz"),
	}, exp, nil
}
