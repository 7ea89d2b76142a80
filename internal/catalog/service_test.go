package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&models.Product{}))
	return gdb
}

func newCatalogService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	gdb := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(gdb))
	require.NoError(t, err)
	return svc, gdb
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Price: decimal.NewFromInt(10), ContentType: enums.ContentTypeUnit})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateInput{Name: "Queijo", ContentType: enums.ContentTypeUnit})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	product, err := svc.Create(ctx, CreateInput{
		Name:        "Queijo Minas",
		Price:       decimal.RequireFromString("34.90"),
		Stock:       decimal.NewFromInt(10),
		ContentType: enums.ContentTypeWeight,
	})
	require.NoError(t, err)
	assert.NotZero(t, product.ID)
	assert.True(t, product.ContentValue.Equal(decimal.NewFromInt(1)), "content value defaults to 1")
}

func TestAdjustStockGuardsNegativeDelta(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateInput{
		Name:        "Doce de Leite",
		Price:       decimal.RequireFromString("18.00"),
		Stock:       decimal.NewFromInt(4),
		ContentType: enums.ContentTypeUnit,
	})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, product.ID, decimal.NewFromInt(-10))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, product.ID, insufficient.ProductID)
	assert.Equal(t, "Doce de Leite", insufficient.ProductName)
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(4)))

	// the failed decrement must not touch the row
	current, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, current.Stock.Equal(decimal.NewFromInt(4)))
}

func TestAdjustStockAppliesDelta(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateInput{
		Name:        "Linguiça",
		Price:       decimal.RequireFromString("25.50"),
		Stock:       decimal.NewFromInt(3),
		ContentType: enums.ContentTypeUnit,
	})
	require.NoError(t, err)

	updated, err := svc.AdjustStock(ctx, product.ID, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, updated.Stock.Equal(decimal.NewFromInt(8)))

	updated, err = svc.AdjustStock(ctx, product.ID, decimal.NewFromInt(-8))
	require.NoError(t, err)
	assert.True(t, updated.Stock.IsZero())
}

func TestAdjustStockUnknownProduct(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.AdjustStock(context.Background(), 999, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListInStockExcludesExhausted(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		Name:        "Esgotado",
		Price:       decimal.NewFromInt(10),
		Stock:       decimal.Zero,
		ContentType: enums.ContentTypeUnit,
	})
	require.NoError(t, err)
	available, err := svc.Create(ctx, CreateInput{
		Name:        "Disponível",
		Price:       decimal.NewFromInt(12),
		Stock:       decimal.NewFromInt(2),
		ContentType: enums.ContentTypeUnit,
	})
	require.NoError(t, err)

	inStock, err := svc.ListInStock(ctx)
	require.NoError(t, err)
	require.Len(t, inStock, 1)
	assert.Equal(t, available.ID, inStock[0].ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateInput{
		Name:        "Café",
		Price:       decimal.RequireFromString("29.90"),
		Stock:       decimal.NewFromInt(6),
		ContentType: enums.ContentTypeUnit,
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("31.50")
	updated, err := svc.Update(ctx, product.ID, UpdateInput{Price: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.Equal(t, "Café", updated.Name)
	assert.True(t, updated.Stock.Equal(decimal.NewFromInt(6)))
}
