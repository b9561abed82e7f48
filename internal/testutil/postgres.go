// Package testutil starts disposable infrastructure for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartPostgres runs a migrated Postgres container and returns an open
// handle. The container is terminated when the test finishes.
func StartPostgres(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("cayocagi"),
		postgres.WithUsername("cayocagi"),
		postgres.WithPassword("cayocagi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func runMigrations(connStr string) error {
	m, err := migrate.New(migrationsPath(), connStr)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func migrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
	return "file://" + filepath.Join(projectRoot, "migrations")
}

// Seed holds ids created by SeedBasics.
type Seed struct {
	AdminID    int64
	UserID     int64
	OtherID    int64
	RoomID     int64
	BeverageID int64
	InactiveID int64
}

// SeedBasics inserts two regular users (the first with the given ticket
// balance), one admin, a room, an active and an inactive beverage.
func SeedBasics(ctx context.Context, t *testing.T, db *sql.DB, tickets int) Seed {
	t.Helper()

	var s Seed
	insert := func(dest *int64, query string, args ...any) {
		t.Helper()
		if err := db.QueryRowContext(ctx, query, args...).Scan(dest); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	const user = `INSERT INTO users (username, password_hash, role, ticket_count) VALUES ($1, 'x', $2, $3) RETURNING id`
	insert(&s.AdminID, user, fmt.Sprintf("admin-%d", time.Now().UnixNano()), "admin", 0)
	insert(&s.UserID, user, fmt.Sprintf("user-%d", time.Now().UnixNano()), "user", tickets)
	insert(&s.OtherID, user, fmt.Sprintf("other-%d", time.Now().UnixNano()), "user", 0)
	insert(&s.RoomID, `INSERT INTO rooms (name) VALUES ('R1') RETURNING id`)
	insert(&s.BeverageID, `INSERT INTO beverages (name, price) VALUES ('tea', 10) RETURNING id`)
	insert(&s.InactiveID, `INSERT INTO beverages (name, price, active) VALUES ('salep', 25, FALSE) RETURNING id`)
	return s
}
