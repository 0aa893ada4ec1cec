package app

import (
	"io/fs"
	"testing"

	"github.com/Domenick1991/tutorbooking/internal/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := NewLogger(env)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "00001_init.sql")
	assert.Contains(t, files, "00002_receipts_append_only.sql")
	assert.Contains(t, files, "00003_one_approved_refund.sql")
}
