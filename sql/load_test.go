package sql

import (
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		assert.NoError(t, Init(db.Instance))
		assert.NoError(t, Init(db.Instance))
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)

	loaders := []struct {
		name      string
		load      func(force bool) error
		functions []string
	}{
		{"resources", func(force bool) error { return LoadResourcesSql(db.Instance, force) }, ResourcesFunctions},
		{"edges", func(force bool) error { return LoadEdgesSql(db.Instance, force) }, EdgesFunctions},
		{"citations", func(force bool) error { return LoadCitationsSql(db.Instance, force) }, CitationsFunctions},
		{"taxonomy", func(force bool) error { return LoadTaxonomySql(db.Instance, force) }, TaxonomyFunctions},
	}

	for _, loader := range loaders {
		t.Run("Load "+loader.name+" SQL functions", func(t *testing.T) {
			err := loader.load(false)
			assert.NoError(t, err)

			for _, funcName := range loader.functions {
				var exists bool
				err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
				require.NoError(t, err)
				assert.True(t, exists, "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+loader.name+" SQL is idempotent without force", func(t *testing.T) {
			assert.NoError(t, loader.load(false))
		})

		t.Run("Load "+loader.name+" SQL with force reloads", func(t *testing.T) {
			assert.NoError(t, loader.load(true))
		})
	}

	t.Run("Load all SQL functions", func(t *testing.T) {
		assert.NoError(t, LoadAllSql(db.Instance, true))
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)

	t.Run("Unknown function is reported missing", func(t *testing.T) {
		exist, err := checkFunctions(db.Instance, []string{"function_that_does_not_exist"})
		assert.NoError(t, err)
		assert.False(t, exist)
	})
}

func TestDropTables(t *testing.T) {
	db := initDB(t)

	t.Run("Drops loaded tables", func(t *testing.T) {
		_, err := db.Instance.Exec(`CREATE TABLE IF NOT EXISTS resources (id UUID PRIMARY KEY);`)
		require.NoError(t, err)
		require.True(t, tableExists(t, db, "resources"), "Expected resources table before drop")

		assert.NoError(t, DropTables(db.Instance))
		assert.False(t, tableExists(t, db, "resources"), "Expected resources table to be gone")
	})

	t.Run("Dropping missing tables succeeds", func(t *testing.T) {
		assert.NoError(t, DropTables(db.Instance))
	})
}
