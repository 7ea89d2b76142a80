package waitlist

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	failTo map[string]bool
}

func (f *fakeSender) SendText(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[to] {
		return fmt.Errorf("gateway refused %s", to)
	}
	f.sent = append(f.sent, to)
	return nil
}

func setupWaitlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&models.StockNotification{}))
	return gdb
}

func newWaitlistService(t *testing.T) (Service, *fakeSender, *gorm.DB) {
	t.Helper()
	gdb := setupWaitlistTestDB(t)
	messenger := &fakeSender{failTo: map[string]bool{}}
	svc, err := NewService(NewRepository(gdb), messenger, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc, messenger, gdb
}

func TestSubscribeRejectsDuplicates(t *testing.T) {
	svc, _, _ := newWaitlistService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "5511999990001", 7))

	err := svc.Subscribe(ctx, "5511999990001", 7)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// a different product is a separate subscription
	require.NoError(t, svc.Subscribe(ctx, "5511999990001", 8))
}

func TestFlushNotifiesAndClears(t *testing.T) {
	svc, messenger, gdb := newWaitlistService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "5511999990001", 7))
	require.NoError(t, svc.Subscribe(ctx, "5511999990002", 7))
	require.NoError(t, svc.Subscribe(ctx, "5511999990003", 9))

	notified, err := svc.Flush(ctx, 7, "Voltou ao estoque!")
	require.NoError(t, err)
	assert.Equal(t, 2, notified)
	assert.ElementsMatch(t, []string{"5511999990001", "5511999990002"}, messenger.sent)

	// rows for the flushed product are gone, the other product keeps its row
	var count int64
	require.NoError(t, gdb.Model(&models.StockNotification{}).Where("product_id = ?", 7).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, gdb.Model(&models.StockNotification{}).Where("product_id = ?", 9).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFlushSkipsUnreachableCustomers(t *testing.T) {
	svc, messenger, gdb := newWaitlistService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "5511999990001", 7))
	require.NoError(t, svc.Subscribe(ctx, "5511999990002", 7))
	messenger.failTo["5511999990001"] = true

	notified, err := svc.Flush(ctx, 7, "Voltou!")
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"5511999990002"}, messenger.sent)

	// the list is cleared even for the customer whose send failed
	var count int64
	require.NoError(t, gdb.Model(&models.StockNotification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFlushEmptyWaitlist(t *testing.T) {
	svc, messenger, _ := newWaitlistService(t)

	notified, err := svc.Flush(context.Background(), 7, "Voltou!")
	require.NoError(t, err)
	assert.Zero(t, notified)
	assert.Empty(t, messenger.sent)
}

func TestForgetDropsAllSubscriptions(t *testing.T) {
	svc, _, gdb := newWaitlistService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "5511999990001", 7))
	require.NoError(t, svc.Subscribe(ctx, "5511999990001", 8))
	require.NoError(t, svc.Subscribe(ctx, "5511999990002", 7))

	require.NoError(t, svc.Forget(ctx, "5511999990001"))

	var count int64
	require.NoError(t, gdb.Model(&models.StockNotification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
