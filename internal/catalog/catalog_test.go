package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListDatabasesSeedsDefault(t *testing.T) {
	c := NewCatalog("data", 0, 0, 1)
	require.Equal(t, []string{"default"}, c.ListDatabases(100, 0))
}

func TestCreateDatabaseIgnoreTwice(t *testing.T) {
	c := NewCatalog("data", 0, 0, 1)

	e1, st := c.CreateDatabase("d", CreateIgnore, 1, 2)
	require.Equal(t, Ok, st.Code)
	e1.Commit(2)

	e2, st := c.CreateDatabase("d", CreateIgnore, 2, 3)
	require.Equal(t, Ok, st.Code)
	require.Same(t, e1, e2)

	names := c.ListDatabases(3, 0)
	count := 0
	for _, n := range names {
		if n == "d" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestCreateDatabaseErrorTwice(t *testing.T) {
	c := NewCatalog("data", 0, 0, 1)

	e1, st := c.CreateDatabase("d", CreateError, 1, 2)
	require.Equal(t, Ok, st.Code)
	e1.Commit(2)

	_, st = c.CreateDatabase("d", CreateError, 2, 3)
	require.NotEqual(t, Ok, st.Code)
}

func TestDatabaseVisibilityAcrossCommits(t *testing.T) {
	c := NewCatalog("data", 0, 0, 1)

	entry, st := c.CreateDatabase("visdb", CreateError, 10, 5)
	require.Equal(t, Ok, st.Code)

	// uncommitted: invisible to other transactions, visible to its own.
	_, st = c.GetDatabase("visdb", 5, 99)
	require.NotEqual(t, Ok, st.Code)
	_, st = c.GetDatabase("visdb", 5, 10)
	require.Equal(t, Ok, st.Code)

	entry.Commit(20)
	_, st = c.GetDatabase("visdb", 19, 99)
	require.NotEqual(t, Ok, st.Code, "must not be visible before its commit_ts")
	_, st = c.GetDatabase("visdb", 20, 99)
	require.Equal(t, Ok, st.Code, "must be visible at exactly its commit_ts")
}

func TestDropDatabaseThenGetNotFound(t *testing.T) {
	c := NewCatalog("data", 0, 0, 1)

	e, st := c.CreateDatabase("gone", CreateError, 1, 1)
	require.Equal(t, Ok, st.Code)
	e.Commit(2)

	dropEntry, st := c.DropDatabase("gone", DropError, 2, 3)
	require.Equal(t, Ok, st.Code)
	dropEntry.Commit(3)

	_, st = c.GetDatabase("gone", 3, 99)
	require.NotEqual(t, Ok, st.Code)

	_, st = c.DropDatabase("gone", DropError, 3, 4)
	require.NotEqual(t, Ok, st.Code, "dropping an already-dropped database with DropError must fail")

	_, st = c.DropDatabase("gone", DropIgnore, 3, 4)
	require.Equal(t, Ok, st.Code)
}

func TestCreateIndexRejectsCompositeColumns(t *testing.T) {
	base := &IndexBase{IndexName: "idx", IndexType: IndexFullText, ColumnNames: []string{"a", "b"}}
	require.Error(t, base.Validate())
}
