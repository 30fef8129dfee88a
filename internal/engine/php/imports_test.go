package php

import (
	"testing"

	"nsresolver/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportedName(t *testing.T) {
	tests := map[string]string{
		`use App\Models\User;`:          "User",
		`use App\Models\User as Admin;`: "Admin",
		`use function App\helper;`:      "helper",
		`use Foo;`:                      "Foo",
		`use App\{A, B};`:               "",
	}
	for stmt, want := range tests {
		assert.Equal(t, want, ImportedName(stmt), stmt)
	}
}

func TestHasConflict(t *testing.T) {
	statements := []UseStatement{
		{Text: `use App\Models\User;`, Line: 2},
		{Text: `use App\Admin\User as AdminUser;`, Line: 3},
	}

	assert.True(t, HasConflict(statements, "User"))
	assert.True(t, HasConflict(statements, "AdminUser"))
	assert.False(t, HasConflict(statements, "Post"))
	assert.False(t, HasConflict(statements, "user"), "comparison is case-sensitive")
	assert.False(t, HasConflict(statements, ""))
	assert.False(t, HasConflict(nil, "User"))
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "User", ShortName(`App\Models\User`))
	assert.Equal(t, "User", ShortName(`\App\Models\User`))
	assert.Equal(t, "User", ShortName("User"))
	assert.Equal(t, "", ShortName(`\`))
}

func TestIsQualified(t *testing.T) {
	assert.True(t, IsQualified(`Models\User`))
	assert.True(t, IsQualified(`\User`))
	assert.False(t, IsQualified("User"))
}

func TestSortStatements_Alphabetical(t *testing.T) {
	statements := []UseStatement{
		{Text: "use B;", Line: 2},
		{Text: "use A;", Line: 3},
	}

	sorted, err := SortStatements(statements, true)
	require.NoError(t, err)
	assert.Equal(t, []UseStatement{
		{Text: "use A;", Line: 2},
		{Text: "use B;", Line: 3},
	}, sorted)
	assert.Equal(t, "use B;", statements[0].Text, "input is not mutated")
}

func TestSortStatements_CaseInsensitive(t *testing.T) {
	statements := []UseStatement{
		{Text: `use b\Second;`, Line: 0},
		{Text: `use A\First;`, Line: 1},
		{Text: `use C\Third;`, Line: 2},
	}

	sorted, err := SortStatements(statements, true)
	require.NoError(t, err)
	assert.Equal(t, `use A\First;`, sorted[0].Text)
	assert.Equal(t, `use b\Second;`, sorted[1].Text)
	assert.Equal(t, `use C\Third;`, sorted[2].Text)
}

func TestSortStatements_ByLengthIsStable(t *testing.T) {
	statements := []UseStatement{
		{Text: `use App\Models\User;`, Line: 4},
		{Text: `use Zed\A;`, Line: 5},
		{Text: `use Abc\B;`, Line: 6},
	}

	sorted, err := SortStatements(statements, false)
	require.NoError(t, err)
	assert.Equal(t, []UseStatement{
		{Text: `use Zed\A;`, Line: 4},
		{Text: `use Abc\B;`, Line: 5},
		{Text: `use App\Models\User;`, Line: 6},
	}, sorted)
}

func TestSortStatements_Idempotent(t *testing.T) {
	statements := []UseStatement{
		{Text: `use Psr\Log\LoggerInterface;`, Line: 3},
		{Text: `use App\Foo;`, Line: 4},
		{Text: `use app\bar;`, Line: 5},
		{Text: `use App\Baz as Qux;`, Line: 6},
	}

	for _, alphabetical := range []bool{true, false} {
		once, err := SortStatements(statements, alphabetical)
		require.NoError(t, err)
		twice, err := SortStatements(once, alphabetical)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestSortStatements_NothingToSort(t *testing.T) {
	_, err := SortStatements([]UseStatement{{Text: "use A;"}}, true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNothingToSort))

	_, err = SortStatements(nil, false)
	assert.True(t, errors.IsCode(err, errors.CodeNothingToSort))
}
