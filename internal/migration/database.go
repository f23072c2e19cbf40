package migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"vcheck/internal/config"
)

// Supported history sink connections
const (
	ConnectionMySQL  = "mysql"
	ConnectionSQLite = "sqlite"
)

var databaseName = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// DatabaseManager opens the history database, creating it when missing
type DatabaseManager struct {
	config *config.Config
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config) *DatabaseManager {
	return &DatabaseManager{config: cfg}
}

// Connection returns the configured driver
func (dm *DatabaseManager) Connection() string {
	if dm.config.Database.Connection == "" {
		return config.DefaultConnection
	}
	return dm.config.Database.Connection
}

// Describe names the database for log and terminal output, without credentials
func (dm *DatabaseManager) Describe() string {
	if dm.Connection() == ConnectionSQLite {
		return "sqlite:" + dm.config.GetSQLitePath()
	}
	return fmt.Sprintf("mysql:%s:%s/%s", dm.config.Database.Host, dm.config.Database.Port, dm.config.GetDatabaseName())
}

// Open connects to the history database. The database (or sqlite file) is
// created if it does not exist yet; tables are the migrator's job.
func (dm *DatabaseManager) Open(ctx context.Context) (*sql.DB, error) {
	switch dm.Connection() {
	case ConnectionMySQL:
		if _, err := dm.EnsureDatabase(ctx); err != nil {
			return nil, err
		}
		return dm.connect(ctx, ConnectionMySQL, dm.config.DSN(true))
	case ConnectionSQLite:
		path := dm.config.GetSQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		db, err := dm.connect(ctx, ConnectionSQLite, path)
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_CONNECTION %q (want mysql or sqlite)", dm.Connection())
	}
}

// EnsureDatabase creates the MySQL database when missing. It reports whether
// the database was created.
func (dm *DatabaseManager) EnsureDatabase(ctx context.Context) (bool, error) {
	dbName := dm.config.GetDatabaseName()
	if !isValidDatabaseName(dbName) {
		return false, fmt.Errorf("invalid database name: %s", dbName)
	}

	// Connect to MySQL server (without specifying database)
	db, err := dm.connect(ctx, ConnectionMySQL, dm.config.DSN(false))
	if err != nil {
		return false, err
	}
	defer db.Close()

	exists, err := databaseExists(ctx, db, dbName)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", dbName, err)
	}
	if exists {
		return false, nil
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", dbName, err)
	}
	return true, nil
}

func (dm *DatabaseManager) connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}
	return db, nil
}

// databaseExists checks if a database exists
func databaseExists(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, dbName).Scan(&exists)
	return exists, err
}

// isValidDatabaseName restricts names to what can be safely quoted in DDL
func isValidDatabaseName(name string) bool {
	return databaseName.MatchString(name)
}
