package settings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

func newSettingsService(t *testing.T) Service {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&models.Setting{}))

	svc, err := NewService(NewRepository(gdb))
	require.NoError(t, err)
	return svc
}

func TestGetMissingKeyReturnsEmpty(t *testing.T) {
	svc := newSettingsService(t)

	value, err := svc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSetUpserts(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, KeyAdminPhone, "5511988880000"))
	require.NoError(t, svc.Set(ctx, KeyAdminPhone, "5511988881111"))

	phone, err := svc.AdminPhone(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5511988881111", phone)

	err = svc.Set(ctx, "", "x")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestMinOrderValueParsing(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	// missing key means no minimum
	value, err := svc.MinOrderValue(ctx)
	require.NoError(t, err)
	assert.True(t, value.IsZero())

	require.NoError(t, svc.Set(ctx, KeyMinOrderValue, "25.00"))
	value, err = svc.MinOrderValue(ctx)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.RequireFromString("25.00")))

	// Brazilian decimal comma is accepted
	require.NoError(t, svc.Set(ctx, KeyMinOrderValue, "19,90"))
	value, err = svc.MinOrderValue(ctx)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.RequireFromString("19.90")))

	// garbage degrades to zero instead of blocking checkout
	require.NoError(t, svc.Set(ctx, KeyMinOrderValue, "abc"))
	value, err = svc.MinOrderValue(ctx)
	require.NoError(t, err)
	assert.True(t, value.IsZero())
}

func TestBoolSettings(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	required, err := svc.RegistrationRequired(ctx)
	require.NoError(t, err)
	assert.False(t, required)

	for _, truthy := range []string{"true", "1", "yes", " TRUE "} {
		require.NoError(t, svc.Set(ctx, KeyRegistrationRequired, truthy))
		required, err = svc.RegistrationRequired(ctx)
		require.NoError(t, err)
		assert.True(t, required, "value %q", truthy)
	}

	require.NoError(t, svc.Set(ctx, KeyPaymentsEnabled, "false"))
	enabled, err := svc.PaymentsEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
}
