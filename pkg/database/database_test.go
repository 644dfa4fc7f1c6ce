package database

import (
	"path/filepath"
	"testing"

	"training_progress_backend/internal/config"
	"training_progress_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_SQLite(t *testing.T) {
	db, err := InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "training.db"),
	}, "release")
	require.NoError(t, err)

	for _, m := range []interface{}{&model.Batch{}, &model.CadetProgress{}, &model.CadetCertification{}, &model.TrainingEvent{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(&config.DatabaseConfig{Driver: "oracle"}, "release")
	assert.ErrorContains(t, err, "unsupported database driver")
}
