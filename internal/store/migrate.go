package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const InitMigration = "000001_init.up.sql"

// FindMigration looks for migrations/<name> in dir and up to five of its parents.
func FindMigration(dir, name string) (string, error) {
	start := dir
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, "migrations", name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found from %s", name, start)
}

// ApplyMigration executes the SQL file at path. Statements are idempotent.
func (s *Store) ApplyMigration(ctx context.Context, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, string(b))
	return err
}

// Open connects to dsn and pings it. With migrate set, the init migration found from the working
// directory is applied before returning.
func Open(ctx context.Context, dsn string, maxConns int32, migrate bool) (*Store, error) {
	st, err := New(ctx, dsn, maxConns)
	if err != nil {
		return nil, fmt.Errorf("store init: %w", err)
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if !migrate {
		return st, nil
	}
	wd, _ := os.Getwd()
	path, err := FindMigration(wd, InitMigration)
	if err == nil {
		err = st.ApplyMigration(ctx, path)
	}
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}
