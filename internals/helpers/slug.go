// file: internals/helpers/slug.go
package helper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify lowercases, strips diacritics and keeps [a-z0-9-]. Empty input becomes "item".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	var buf []rune
	for _, r := range norm.NFD.String(strings.ToLower(strings.TrimSpace(s))) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	out := reNonAlnum.ReplaceAllString(string(buf), "-")
	out = strings.Trim(reHyphen.ReplaceAllString(out, "-"), "-")
	if len(out) > maxLen {
		out = strings.Trim(out[:maxLen], "-")
	}
	if out == "" {
		out = "item"
	}
	return out
}

// EnsureUniqueSlug appends -2, -3, ... until no row in table.column matches (case-insensitive).
// scope narrows the check, e.g. to one library.
func EnsureUniqueSlug(
	ctx context.Context,
	db *gorm.DB,
	table, column, base string,
	scope func(*gorm.DB) *gorm.DB,
) (string, error) {
	slug := base
	for i := 2; i < 50; i++ {
		q := db.WithContext(ctx).Table(table)
		if scope != nil {
			q = scope(q)
		}
		var n int64
		if err := q.Where(fmt.Sprintf("LOWER(%s) = ?", column), strings.ToLower(slug)).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
