package store

import (
	"context"
	"testing"

	"dragon-forge/internal/testutil"
)

func openStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	st, err := Open(ctx, testutil.PostgresDSN(t), 2, true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)
	return st, ctx
}

func int64Ptr(v int64) *int64 { return &v }
