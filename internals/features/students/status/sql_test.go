package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	studentModel "librarydesk_backend/internals/features/students/students/model"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func render(t *testing.T, p Predicate) (string, []any) {
	t.Helper()
	var rows []studentModel.StudentModel
	stmt := dryRunDB(t).Model(&studentModel.StudentModel{}).Scopes(Scope(p)).Find(&rows).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestSQL_Expired(t *testing.T) {
	p, err := Compile(Filter{LibraryID: lib, BranchID: &branchA, Status: Expired}, now)
	require.NoError(t, err)

	sql, vars := render(t, p)
	assert.Contains(t, sql, `FROM "students"`)
	assert.Contains(t, sql, "students.student_library_id = $1")
	assert.Contains(t, sql, "sub.subscription_branch_id = $")
	assert.Contains(t, sql, "NOT (EXISTS (SELECT 1 FROM subscriptions sub")
	assert.Contains(t, sql, "NOT (students.student_is_blocked = TRUE)")
	assert.Contains(t, vars, now)
	assert.Contains(t, vars, "active")
}

func TestSQL_PlaceholdersMatchArgs(t *testing.T) {
	for _, st := range append([]Status{""}, All...) {
		t.Run("status="+string(st), func(t *testing.T) {
			p, err := Compile(Filter{LibraryID: lib, BranchID: &branchB, Status: st, Search: "50%_off"}, now)
			require.NoError(t, err)
			raw, args := p.SQL()
			n := 0
			for _, r := range raw {
				if r == '?' {
					n++
				}
			}
			assert.Equal(t, n, len(args))

			_, vars := render(t, p)
			assert.Len(t, vars, len(args))
		})
	}
}

func TestSQL_SearchEscapesWildcards(t *testing.T) {
	_, args := Search{Q: `50%_off\`}.SQL()
	require.Len(t, args, 3)
	assert.Equal(t, `%50\%\_off\\%`, args[0])
}
