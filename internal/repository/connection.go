package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Credentials struct {
	Driver            string // "postgres" or "sqlite"
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SQLitePath        string
	MigrationsDirPath string
}

// Open connects to the configured database and verifies the connection.
func Open(cred *Credentials) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cred.Driver {
	case "postgres":
		psqlconn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cred.Host,
			cred.Port,
			cred.User,
			cred.Password,
			cred.DBName)
		db, err = sql.Open("postgres", psqlconn)
	case "sqlite":
		db, err = sql.Open("sqlite", cred.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cred.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	if cred.Driver == "postgres" {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}

	return db, nil
}

// RunMigrations applies the schema migrations matching the driver. The
// migrations dir holds one subdirectory per driver since the DDL dialects
// differ.
func RunMigrations(db *sql.DB, cred *Credentials) error {
	src := fmt.Sprintf("file://%s", filepath.Join(cred.MigrationsDirPath, cred.Driver))

	var (
		m   *migrate.Migrate
		err error
	)
	switch cred.Driver {
	case "postgres":
		d, e2 := postgres.WithInstance(db, &postgres.Config{})
		if e2 != nil {
			return fmt.Errorf("could not create migration driver: %w", e2)
		}
		m, err = migrate.NewWithDatabaseInstance(src, "postgres", d)
	case "sqlite":
		d, e2 := sqlite.WithInstance(db, &sqlite.Config{})
		if e2 != nil {
			return fmt.Errorf("could not create migration driver: %w", e2)
		}
		m, err = migrate.NewWithDatabaseInstance(src, "sqlite", d)
	default:
		return fmt.Errorf("unsupported database driver %q", cred.Driver)
	}
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}
