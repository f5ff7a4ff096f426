package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/dbtest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

func TestMigrateIndexAndSeedAdmin(t *testing.T) {
	db := dbtest.Open(t)
	m := NewMigration(db, logger.Discard())

	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.CreateIndexes())

	require.NoError(t, m.SeedAdmin("Root@Example.com", "s3cret-admin", bcrypt.MinCost))
	require.NoError(t, m.SeedAdmin("root@example.com", "other-pass1", bcrypt.MinCost))

	var admins []user.User
	require.NoError(t, db.Where("is_admin = ?", true).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@example.com", admins[0].Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("s3cret-admin")))

	require.NoError(t, m.SeedAdmin("", "", bcrypt.MinCost))
}
