//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a database container and returns host and mapped port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

// exerciseBackend runs the cache and history lifecycle against one backend.
// Cache and history share the database but not the tables.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Setenv("IPAUDIT_CACHE_BACKEND", backend)
	t.Setenv("IPAUDIT_CACHE_DB_CONNECT", connStr)
	t.Setenv("IPAUDIT_HISTORY_BACKEND", backend)
	t.Setenv("IPAUDIT_HISTORY_DB_CONNECT", connStr)

	repo := newFixtureRepo(t, fixtureCommits)
	findings := writeFindings(t)

	_, err := runIPAudit(t, repo, "cache", "clear")
	require.NoError(t, err)
	_, err = runIPAudit(t, repo, "history", "clear")
	require.NoError(t, err)
	_, err = runIPAudit(t, repo, "history", "migrate")
	require.NoError(t, err)

	// Two audits: the first fills the churn cache, the second reads it
	for range 2 {
		_, err = runIPAudit(t, repo, "audit", "--output-dir", filepath.Join(t.TempDir(), "bundle"), "--findings", findings)
		require.NoError(t, err)
	}

	out, err := runIPAudit(t, repo, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")
	assert.Contains(t, out, "Total Entries: 1")

	out, err = runIPAudit(t, repo, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	exportBase := filepath.Join(t.TempDir(), "audits")
	_, err = runIPAudit(t, repo, "history", "export", "--output-file", exportBase)
	require.NoError(t, err)
	for _, suffix := range []string{".audit_runs.parquet", ".file_records.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

// TestIPAuditWithMySQL runs the CLI against a MySQL backend.
func TestIPAuditWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "ipaudit",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/ipaudit?parseTime=true", host, port)
	exerciseBackend(t, "mysql", connStr)
}

// TestIPAuditWithPostgres runs the CLI against a PostgreSQL backend.
func TestIPAuditWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port)
	exerciseBackend(t, "postgresql", connStr)
}
