package permissions_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gestao-backend/shared/database"
	"gestao-backend/shared/database/models"
	"gestao-backend/shared/permissions"
)

type checkerFixture struct {
	db      *gorm.DB
	server  *miniredis.Miniredis
	checker *permissions.Checker
	user    models.User
	company models.Company
}

func newCheckerFixture(t *testing.T, role string) *checkerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := permissions.NewMembershipCacheWithClient(client)

	user := models.User{FullName: "Ana", Email: "ana@example.com", Password: "x", Role: models.GlobalRoleContratante}
	require.NoError(t, db.Create(&user).Error)
	company := models.Company{Name: "Acme", Active: true}
	require.NoError(t, db.Create(&company).Error)
	if role != "" {
		require.NoError(t, db.Create(&models.UserCompany{
			UserID: user.ID, CompanyID: company.ID, Role: role,
		}).Error)
	}

	return &checkerFixture{
		db:      db,
		server:  server,
		checker: permissions.NewChecker(db, cache),
		user:    user,
		company: company,
	}
}

func TestMembershipRoleFromDatabase(t *testing.T) {
	f := newCheckerFixture(t, "moderador")

	role, found, err := f.checker.MembershipRole(context.Background(), f.user.ID, f.company.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "moderador", role)
}

func TestMembershipRoleIsCached(t *testing.T) {
	f := newCheckerFixture(t, "dono")
	ctx := context.Background()

	_, _, err := f.checker.MembershipRole(ctx, f.user.ID, f.company.ID)
	require.NoError(t, err)

	// Remove the row behind the cache's back; the cached role must still
	// answer until it is invalidated.
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).Delete(&models.UserCompany{}).Error)

	role, found, err := f.checker.MembershipRole(ctx, f.user.ID, f.company.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dono", role)

	f.checker.Invalidate(ctx, f.user.ID, f.company.ID)

	_, found, err = f.checker.MembershipRole(ctx, f.user.ID, f.company.ID)
	require.NoError(t, err)
	assert.False(t, found, "invalidation exposes the removed membership")
}

func TestNegativeLookupIsCached(t *testing.T) {
	f := newCheckerFixture(t, "")
	ctx := context.Background()

	member, err := f.checker.IsMember(ctx, f.user.ID, f.company.ID)
	require.NoError(t, err)
	assert.False(t, member)

	// The absence itself is now cached.
	require.True(t, f.server.Exists("membership:1:1"))
}

func TestCanManage(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{"dono", true},
		{"administrador", true},
		{"moderador", false},
		{"membro", false},
		{"visitante", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run("role "+tc.role, func(t *testing.T) {
			f := newCheckerFixture(t, tc.role)
			allowed, err := f.checker.CanManage(context.Background(), f.user.ID, f.company.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, allowed)
		})
	}
}

func TestCheckerWorksWithoutCache(t *testing.T) {
	f := newCheckerFixture(t, "membro")
	bare := permissions.NewChecker(f.db, nil)

	member, err := bare.IsMember(context.Background(), f.user.ID, f.company.ID)
	require.NoError(t, err)
	assert.True(t, member)
}
