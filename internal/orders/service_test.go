package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/internal/catalog"
	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	))
	return gdb
}

func newOrdersService(t *testing.T) (Service, catalog.Repository, *gorm.DB) {
	t.Helper()
	gdb := setupOrdersTestDB(t)
	products := catalog.NewRepository(gdb)
	svc, err := NewService(NewRepository(gdb), products, gormTxRunner{db: gdb})
	require.NoError(t, err)
	return svc, products, gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, name string, price string, stock int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Stock:       decimal.NewFromInt(stock),
		ContentType: enums.ContentTypeUnit,
	}
	require.NoError(t, gdb.Create(product).Error)
	return product
}

func productStock(t *testing.T, products catalog.Repository, id uint) decimal.Decimal {
	t.Helper()
	product, err := products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestPlaceDecrementsStockAndSnapshotsItems(t *testing.T) {
	svc, products, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)
	sweet := seedProduct(t, gdb, "Doce", "18.00", 5)

	order, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 2, UnitPrice: cheese.Price},
		{ProductID: sweet.ID, Name: sweet.Name, Quantity: 1, UnitPrice: sweet.Price},
	}, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	assert.True(t, order.Total.Equal(decimal.RequireFromString("87.80")))
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)

	assert.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(8)))
	assert.True(t, productStock(t, products, sweet.ID).Equal(decimal.NewFromInt(4)))

	// item snapshots survive independently of the product rows
	stored, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	byName := map[string]models.OrderItem{}
	for _, item := range stored.Items {
		byName[item.ProductName] = item
	}
	require.Contains(t, byName, "Queijo")
	assert.Equal(t, 2, byName["Queijo"].Quantity)
	assert.True(t, byName["Queijo"].UnitPrice.Equal(cheese.Price))
}

func TestPlaceInsufficientStockRollsBackEverything(t *testing.T) {
	svc, products, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)
	sweet := seedProduct(t, gdb, "Doce", "18.00", 1)

	_, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 2, UnitPrice: cheese.Price},
		{ProductID: sweet.ID, Name: sweet.Name, Quantity: 3, UnitPrice: sweet.Price},
	}, enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	// the first line's decrement must have been rolled back
	assert.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(10)))
	assert.True(t, productStock(t, products, sweet.ID).Equal(decimal.NewFromInt(1)))

	var count int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPlaceRejectsBadInput(t *testing.T) {
	svc, _, gdb := newOrdersService(t)
	ctx := context.Background()
	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)

	_, err := svc.Place(ctx, "", []Line{{ProductID: cheese.ID, Name: cheese.Name, Quantity: 1, UnitPrice: cheese.Price}}, enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Place(ctx, "5511999990001", nil, enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Place(ctx, "5511999990001", []Line{{ProductID: cheese.ID, Name: cheese.Name, Quantity: 0, UnitPrice: cheese.Price}}, enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRestoreStockCompensatesFromItemRows(t *testing.T) {
	svc, products, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)
	order, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 4, UnitPrice: cheese.Price},
	}, enums.OrderStatusAwaitingPayment)
	require.NoError(t, err)
	require.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(6)))

	restored, err := svc.RestoreStock(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, restored.Status)
	assert.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(10)))
}

func TestResolvePaymentApprovedMarksPaid(t *testing.T) {
	svc, _, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)
	order, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 1, UnitPrice: cheese.Price},
	}, enums.OrderStatusAwaitingPayment)
	require.NoError(t, err)

	resolved, err := svc.ResolvePayment(ctx, order.ID, enums.PaymentStatusApproved, "pay-123")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, resolved.Status)
	require.NotNil(t, resolved.PaymentRef)
	assert.Equal(t, "pay-123", *resolved.PaymentRef)
}

func TestResolvePaymentCancelledRestoresStock(t *testing.T) {
	svc, products, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)
	order, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 3, UnitPrice: cheese.Price},
	}, enums.OrderStatusAwaitingPayment)
	require.NoError(t, err)
	require.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(7)))

	resolved, err := svc.ResolvePayment(ctx, order.ID, enums.PaymentStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, resolved.Status)
	assert.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(10)))
}

func TestResolvePaymentCancelledReplayIsIdempotent(t *testing.T) {
	svc, products, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)
	order, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 3, UnitPrice: cheese.Price},
	}, enums.OrderStatusAwaitingPayment)
	require.NoError(t, err)
	require.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(7)))

	_, err = svc.ResolvePayment(ctx, order.ID, enums.PaymentStatusCancelled, "")
	require.NoError(t, err)
	require.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(10)))

	// providers retry webhooks; a replay must not inflate the shelf
	replayed, err := svc.ResolvePayment(ctx, order.ID, enums.PaymentStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, replayed.Status)
	assert.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(10)))
}

func TestLateCancellationAfterPaymentIsIgnored(t *testing.T) {
	svc, products, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "34.90", 10)
	order, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 2, UnitPrice: cheese.Price},
	}, enums.OrderStatusAwaitingPayment)
	require.NoError(t, err)

	_, err = svc.ResolvePayment(ctx, order.ID, enums.PaymentStatusApproved, "pay-1")
	require.NoError(t, err)

	resolved, err := svc.ResolvePayment(ctx, order.ID, enums.PaymentStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, resolved.Status)
	assert.True(t, productStock(t, products, cheese.ID).Equal(decimal.NewFromInt(8)))
}

func TestResolvePaymentUnknownOrder(t *testing.T) {
	svc, _, _ := newOrdersService(t)

	_, err := svc.ResolvePayment(context.Background(), 404, enums.PaymentStatusApproved, "pay-1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestStatsAndRankings(t *testing.T) {
	svc, _, gdb := newOrdersService(t)
	ctx := context.Background()

	cheese := seedProduct(t, gdb, "Queijo", "10.00", 100)
	sweet := seedProduct(t, gdb, "Doce", "5.00", 100)

	_, err := svc.Place(ctx, "5511999990001", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 3, UnitPrice: cheese.Price},
	}, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = svc.Place(ctx, "5511999990002", []Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 1, UnitPrice: cheese.Price},
		{ProductID: sweet.ID, Name: sweet.Name, Quantity: 2, UnitPrice: sweet.Price},
	}, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	top, err := svc.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "Queijo", top[0].ProductName)

	customers, err := svc.TopCustomers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "5511999990001", customers[0].CustomerPhone)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Orders)
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("50.00")))
}
