package sql

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/siherrmann/relgraph/helper"
	"github.com/stretchr/testify/require"
)

var dbPort string

func TestMain(m *testing.M) {
	teardown, port, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}
	dbPort = port

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("error tearing down postgres container: %v", err)
		}
	}
	os.Exit(code)
}

// initDB connects to the test container with the vector extension installed
// and no relgraph tables left over from earlier tests.
func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	database := helper.NewTestDatabase(dbConfig)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, Init(database.Instance), "failed to initialize extensions")
	require.NoError(t, DropTables(database.Instance), "failed to drop leftover tables")

	return database
}

func tableExists(t *testing.T, db *helper.Database, table string) bool {
	var exists bool
	err := db.Instance.QueryRow(`SELECT to_regclass($1) IS NOT NULL;`, table).Scan(&exists)
	require.NoError(t, err, "failed to look up table %s", table)
	return exists
}
