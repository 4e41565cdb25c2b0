//go:build integration

// Package pgtest starts a disposable PostgreSQL container for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image    = "postgres:15.3-alpine"
	database = "accountkit"
	username = "user"
	password = "password"
)

// Container is a running PostgreSQL instance.
type Container struct {
	*postgres.PostgresContainer
	ConnString string
}

// Start runs a fresh container and returns its connection string.
func Start(ctx context.Context) (*Container, error) {
	container, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase(database),
		postgres.WithUsername(username),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			// postgres restarts once after init, so wait for the second ready line
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	conn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to obtain connection string: %w", err)
	}

	return &Container{PostgresContainer: container, ConnString: conn}, nil
}
