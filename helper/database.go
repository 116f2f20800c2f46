package helper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection settings for PostgreSQL.
type DatabaseConfiguration struct {
	Host          string
	Port          string
	Database      string
	Username      string
	Password      string
	Schema        string
	SSLMode       string
	WithTableDrop bool
}

// NewDatabaseConfiguration reads the database configuration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, NewError("load .env", err)
	}

	withTableDrop, err := GetEnvBool("RELGRAPH_DB_WITH_TABLE_DROP", false)
	if err != nil {
		return nil, err
	}

	config := &DatabaseConfiguration{
		Host:          GetEnvString("RELGRAPH_DB_HOST", "localhost"),
		Port:          GetEnvString("RELGRAPH_DB_PORT", "5432"),
		Database:      os.Getenv("RELGRAPH_DB_DATABASE"),
		Username:      os.Getenv("RELGRAPH_DB_USERNAME"),
		Password:      os.Getenv("RELGRAPH_DB_PASSWORD"),
		Schema:        GetEnvString("RELGRAPH_DB_SCHEMA", "public"),
		SSLMode:       GetEnvString("RELGRAPH_DB_SSLMODE", "disable"),
		WithTableDrop: withTableDrop,
	}
	if config.Database == "" || config.Username == "" || config.Password == "" {
		return nil, NewError("database configuration", fmt.Errorf("RELGRAPH_DB_DATABASE, RELGRAPH_DB_USERNAME and RELGRAPH_DB_PASSWORD must be set"))
	}

	return config, nil
}

// DatabaseConnectionString returns the lib/pq connection string.
func (c *DatabaseConfiguration) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode, c.Schema,
	)
}

// Database is a named connection pool with its logger.
type Database struct {
	Name     string
	Logger   *slog.Logger
	Instance *sql.DB
}

// NewDatabase opens and pings the connection pool described by dbConfig.
// It panics if the database is not reachable after a few retries.
func NewDatabase(name string, dbConfig *DatabaseConfiguration, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{}))
	}

	db := &Database{
		Name:   name,
		Logger: logger,
	}

	err := db.ConnectToDatabase(dbConfig)
	if err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}

	if dbConfig.WithTableDrop {
		logger.Warn("Table drop enabled, existing tables are dropped on startup", slog.String("database", name))
	}

	return db
}

// ConnectToDatabase opens the pool and waits until the database answers.
func (d *Database) ConnectToDatabase(dbConfig *DatabaseConfiguration) error {
	instance, err := sql.Open("postgres", dbConfig.DatabaseConnectionString())
	if err != nil {
		return NewError("open", err)
	}

	instance.SetMaxOpenConns(25)
	instance.SetMaxIdleConns(5)
	instance.SetConnMaxLifetime(30 * time.Minute)

	var pingErr error
	for attempt := 1; attempt <= 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = instance.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		d.Logger.Warn("Database not ready, retrying", slog.Int("attempt", attempt), slog.String("error", pingErr.Error()))
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if pingErr != nil {
		_ = instance.Close()
		return NewError("ping", pingErr)
	}

	d.Instance = instance
	d.Logger.Info("Connected to database", slog.String("database", d.Name))

	return nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
