package helper

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseQuery(t *testing.T, query string, opt Options) Params {
	t.Helper()
	var got Params
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParseFiber(c, "created_at", "desc", opt)
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
	require.NoError(t, err)
	return got
}

func TestParseFiber(t *testing.T) {
	p := parseQuery(t, "", DefaultOpts)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 25, p.PerPage)
	assert.Equal(t, "created_at", p.SortBy)
	assert.Equal(t, "desc", p.SortOrder)

	p = parseQuery(t, "?page=3&limit=10&order=ASC", DefaultOpts)
	assert.Equal(t, 10, p.Limit())
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, "asc", p.SortOrder)

	p = parseQuery(t, "?per_page=9999&page=-2", DefaultOpts)
	assert.Equal(t, 200, p.PerPage)
	assert.Equal(t, 1, p.Page)

	p = parseQuery(t, "?per_page=all&page=4", ExportOpts)
	assert.True(t, p.All)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50_000, p.PerPage)
}

func TestSafeOrderClause(t *testing.T) {
	allowed := map[string]string{"name": "user_name", "created_at": "user_created_at"}

	got, err := Params{SortBy: "name", SortOrder: "asc"}.SafeOrderClause(allowed, "created_at")
	require.NoError(t, err)
	assert.Equal(t, "user_name ASC", got)

	got, err = Params{SortBy: "password; drop table users"}.SafeOrderClause(allowed, "created_at")
	require.NoError(t, err)
	assert.Equal(t, "user_created_at DESC", got)

	_, err = Params{}.SafeOrderClause(allowed, "missing")
	assert.Error(t, err)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, LikePattern(" 50%_off "))
}
