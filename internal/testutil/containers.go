package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartRedis runs a disposable Redis container and returns its URL. The test
// is skipped under -short or when no container runtime is available.
func StartRedis(t *testing.T) string {
	t.Helper()
	container := start(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(t, container, "6379")
	return fmt.Sprintf("redis://%s:%s/0", host, port)
}

// StartPostgres runs a disposable PostgreSQL container and returns a DSN
func StartPostgres(t *testing.T) string {
	t.Helper()
	container := start(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(t, container, "5432")
	return fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port)
}

func start(t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate %s container: %v", req.Image, err)
		}
	})
	return container
}

func endpoint(t *testing.T, container testcontainers.Container, port string) (string, string) {
	t.Helper()
	ctx := context.Background()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	return host, mapped.Port()
}
