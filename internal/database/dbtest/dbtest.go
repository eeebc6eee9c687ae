// Package dbtest runs a throwaway Postgres container for package tests.
//
// Call Run from TestMain and Open from each test. When Docker is not
// available the container is skipped and Open skips the calling test.
package dbtest

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/stackit/backend/internal/database"
)

var (
	dsn      string
	startErr error
)

// Run starts the container, runs the tests and tears the container down.
func Run(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := start(ctx, runPostgres)
	if err != nil {
		startErr = err
		log.Printf("postgres container unavailable, database tests will be skipped: %v", err)
		return m.Run()
	}
	defer func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			log.Printf("failed to terminate postgres container: %v", err)
		}
	}()

	dsn, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		startErr = err
	}

	return m.Run()
}

func runPostgres(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stackit"),
		tcpostgres.WithUsername("stackit"),
		tcpostgres.WithPassword("stackit"),
		tcpostgres.BasicWaitStrategies(),
	)
}

// start runs launch, turning the panic testcontainers raises when no Docker
// host can be found into an error.
func start(ctx context.Context, launch func(context.Context) (*tcpostgres.PostgresContainer, error)) (ctr *tcpostgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctr, err = nil, fmt.Errorf("docker unavailable: %v", r)
		}
	}()
	return launch(ctx)
}

// Open returns a migrated database with every table emptied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	if dsn == "" {
		t.Skipf("postgres container unavailable: %v", startErr)
	}

	db, err := database.Open(postgres.Open(dsn), logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.Exec("TRUNCATE votes, answers, questions, users RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("truncate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}
