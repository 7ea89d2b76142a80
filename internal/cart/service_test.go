package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&models.Product{}, &models.CartItem{}))
	return gdb
}

type dbProductLoader struct {
	db *gorm.DB
}

func (l dbProductLoader) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var products []models.Product
	err := l.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func newCartService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	gdb := setupCartTestDB(t)
	svc, err := NewService(NewStore(), NewRepository(gdb), dbProductLoader{db: gdb})
	require.NoError(t, err)
	return svc, gdb
}

func seedCartProduct(t *testing.T, gdb *gorm.DB, name, price string, stock int64) models.Product {
	t.Helper()
	product := models.Product{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Stock:       decimal.NewFromInt(stock),
		ContentType: enums.ContentTypeUnit,
	}
	require.NoError(t, gdb.Create(&product).Error)
	return product
}

func TestCartTotalTracksLines(t *testing.T) {
	svc, gdb := newCartService(t)
	ctx := context.Background()
	phone := "5511999990001"

	cheese := seedCartProduct(t, gdb, "Queijo", "34.90", 10)
	sweet := seedCartProduct(t, gdb, "Doce", "18.00", 10)

	c, err := svc.Add(ctx, phone, cheese, 2)
	require.NoError(t, err)
	assert.True(t, c.Total.Equal(decimal.RequireFromString("69.80")))

	c, err = svc.Add(ctx, phone, sweet, 1)
	require.NoError(t, err)
	assert.True(t, c.Total.Equal(decimal.RequireFromString("87.80")))
	assert.Len(t, c.Lines, 2)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	svc, gdb := newCartService(t)
	cheese := seedCartProduct(t, gdb, "Queijo", "34.90", 10)

	_, err := svc.Add(context.Background(), "5511999990001", cheese, 0)
	require.Error(t, err)
	_, err = svc.Add(context.Background(), "5511999990001", cheese, -1)
	require.Error(t, err)
}

func TestLoadRebuildsFromRowsWithCurrentPrices(t *testing.T) {
	svc, gdb := newCartService(t)
	ctx := context.Background()
	phone := "5511999990001"

	cheese := seedCartProduct(t, gdb, "Queijo", "34.90", 10)
	_, err := svc.Add(ctx, phone, cheese, 2)
	require.NoError(t, err)

	// simulate a restart: fresh store, same rows
	restarted, err := NewService(NewStore(), NewRepository(gdb), dbProductLoader{db: gdb})
	require.NoError(t, err)

	// the shelf price changed while the process was down
	require.NoError(t, gdb.Model(&models.Product{}).
		Where("id = ?", cheese.ID).
		Update("price", decimal.RequireFromString("40.00")).Error)

	c, err := restarted.Load(ctx, phone)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].UnitPrice.Equal(decimal.RequireFromString("40.00")))
	assert.True(t, c.Total.Equal(decimal.RequireFromString("80.00")))
}

func TestLoadIsIdempotent(t *testing.T) {
	svc, gdb := newCartService(t)
	ctx := context.Background()
	phone := "5511999990001"

	cheese := seedCartProduct(t, gdb, "Queijo", "34.90", 10)
	_, err := svc.Add(ctx, phone, cheese, 3)
	require.NoError(t, err)

	first, err := svc.Load(ctx, phone)
	require.NoError(t, err)
	second, err := svc.Load(ctx, phone)
	require.NoError(t, err)

	assert.Equal(t, len(first.Lines), len(second.Lines))
	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, 3, second.Lines[0].Quantity)
}

func TestLoadDropsRowsForDeletedProducts(t *testing.T) {
	svc, gdb := newCartService(t)
	ctx := context.Background()
	phone := "5511999990001"

	cheese := seedCartProduct(t, gdb, "Queijo", "34.90", 10)
	sweet := seedCartProduct(t, gdb, "Doce", "18.00", 10)
	_, err := svc.Add(ctx, phone, cheese, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, phone, sweet, 1)
	require.NoError(t, err)

	require.NoError(t, gdb.Delete(&models.Product{}, sweet.ID).Error)

	c, err := svc.Load(ctx, phone)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, cheese.ID, c.Lines[0].ProductID)
	assert.True(t, c.Total.Equal(decimal.RequireFromString("34.90")))
}

func TestClearEmptiesMemoryAndRows(t *testing.T) {
	svc, gdb := newCartService(t)
	ctx := context.Background()
	phone := "5511999990001"

	cheese := seedCartProduct(t, gdb, "Queijo", "34.90", 10)
	_, err := svc.Add(ctx, phone, cheese, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, phone))
	assert.True(t, svc.Cart(phone).Empty())

	var count int64
	require.NoError(t, gdb.Model(&models.CartItem{}).Count(&count).Error)
	assert.Zero(t, count)
}
