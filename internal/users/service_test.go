package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

func newUsersService(t *testing.T) Service {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&models.User{}))

	svc, err := NewService(NewRepository(gdb), logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc := newUsersService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Username: "maria",
		Password: "segredo1",
		Name:     "Maria",
		Role:     enums.UserRoleAgent,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "segredo1", created.PasswordHash)

	user, err := svc.Authenticate(ctx, "maria", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc := newUsersService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Username: "maria", Password: "segredo1", Name: "Maria", Role: enums.UserRoleAgent})
	require.NoError(t, err)

	_, wrongPass := svc.Authenticate(ctx, "maria", "errada")
	_, unknownUser := svc.Authenticate(ctx, "joao", "qualquer")

	require.Error(t, wrongPass)
	require.Error(t, unknownUser)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(wrongPass).Code())
	assert.Equal(t, pkgerrors.As(wrongPass).Message(), pkgerrors.As(unknownUser).Message())
}

func TestCreateValidation(t *testing.T) {
	svc := newUsersService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Username: "x", Password: "short", Role: enums.UserRoleAdmin})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateInput{Username: "maria", Password: "segredo1", Role: enums.UserRole("chefe")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc := newUsersService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Username: "maria", Password: "segredo1", Role: enums.UserRoleAgent})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Username: "maria", Password: "segredo2", Role: enums.UserRoleAgent})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestEnsureDefaultAdminSeedsOnce(t *testing.T) {
	svc := newUsersService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx))

	admin, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, admin.Role)

	// a second boot must not duplicate or reset anything
	require.NoError(t, svc.EnsureDefaultAdmin(ctx))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEnsureDefaultAdminSkipsPopulatedTable(t *testing.T) {
	svc := newUsersService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Username: "maria", Password: "segredo1", Role: enums.UserRoleAdmin})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureDefaultAdmin(ctx))
	_, err = svc.Authenticate(ctx, "admin", "admin123")
	require.Error(t, err)
}
