package repositories_test

import (
	"context"
	"os"
	"testing"

	"github.com/simcoach/simcoach/internal/sqlite"
	"github.com/simcoach/simcoach/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a fresh in-memory database with the embedded schema and
// fixtures, plus a test user to own chats and progress rows.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	ctx := context.Background()
	dbs, err := sqlite.NewDatabase(ctx, ":memory:", testhelpers.NewLogger(os.Stderr))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})
	_, err = dbs.ReadWrite.ExecContext(ctx,
		`INSERT INTO users (id, display_name) VALUES (?, 'Test Trainee')`, testUserID)
	require.NoError(t, err)
	return dbs
}

var testUserID = []byte("test-user-id-0000000")
