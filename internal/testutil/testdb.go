// Package testutil gives integration tests an isolated Postgres schema.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"dragon-forge/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresDSN creates a fresh schema on TEST_POSTGRES_DSN and returns a DSN whose search_path
// points at it. The test is skipped when TEST_POSTGRES_DSN is unset. The schema is dropped when
// the test ends unless TEST_KEEP_SCHEMA is set.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	schema := fmt.Sprintf("forge_test_%d", time.Now().UnixNano())
	if err := execDDL(cfg.TestPostgresDSN, "CREATE SCHEMA %s", schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if cfg.KeepSchema {
			t.Logf("kept schema %s", schema)
			return
		}
		if err := execDDL(cfg.TestPostgresDSN, "DROP SCHEMA %s CASCADE", schema); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})
	return withSearchPath(cfg.TestPostgresDSN, schema)
}

func execDDL(dsn, format, schema string) error {
	if !schemaNamePattern.MatchString(schema) {
		return fmt.Errorf("schema %q does not match required pattern", schema)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	_, err = pool.Exec(ctx, fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()))
	return err
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
