package migrate

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDeclaredOrder(t *testing.T) {
	migrations := Migrations()
	require.NotEmpty(t, migrations)

	ids := make([]string, 0, len(migrations))
	for _, m := range migrations {
		require.NotEmpty(t, m.ID)
		require.NotEmpty(t, m.Description)
		require.NotNil(t, m.Upgrade)
		ids = append(ids, m.ID)
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate migration id %s", id)
		seen[id] = true
	}

	// The runner applies the list as declared; the declared order must match
	// the numeric prefixes so a reader can trust either.
	assert.True(t, sort.StringsAreSorted(ids), "migration ids out of order: %v", ids)
}
