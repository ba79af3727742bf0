package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/DealerHub/app/models"
	"github.com/ManuelReschke/DealerHub/internal/pkg/env"
)

func TestOpenSQLiteMigratesTables(t *testing.T) {
	cfg := &env.Config{DBDriver: env.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "dealerhub.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, m := range models.AllModels() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.DealershipProjectActivation{}, "ux_dealership_project_activations_key"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&env.Config{DBDriver: "postgres"})
	assert.Error(t, err)
}
