package dialog

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/internal/cart"
	"github.com/yupvendas/storebot/internal/catalog"
	"github.com/yupvendas/storebot/internal/chat"
	"github.com/yupvendas/storebot/internal/customers"
	"github.com/yupvendas/storebot/internal/lookup"
	"github.com/yupvendas/storebot/internal/orders"
	"github.com/yupvendas/storebot/internal/payment"
	"github.com/yupvendas/storebot/internal/session"
	"github.com/yupvendas/storebot/internal/settings"
	"github.com/yupvendas/storebot/internal/waitlist"
	"github.com/yupvendas/storebot/internal/whatsapp"
	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
	"github.com/yupvendas/storebot/pkg/logger"
)

type sentText struct {
	To   string
	Body string
}

type sentList struct {
	To          string
	Description string
	RowIDs      []string
}

// scriptMessenger records every outbound message so tests can assert on the
// full conversation transcript.
type scriptMessenger struct {
	mu    sync.Mutex
	texts []sentText
	lists []sentList
}

func (m *scriptMessenger) SendText(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, sentText{To: to, Body: body})
	return nil
}

func (m *scriptMessenger) SendList(_ context.Context, to, description, _ string, sections []whatsapp.ListSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := sentList{To: to, Description: description}
	for _, section := range sections {
		for _, row := range section.Rows {
			list.RowIDs = append(list.RowIDs, row.RowID)
		}
	}
	m.lists = append(m.lists, list)
	return nil
}

func (m *scriptMessenger) textsTo(to string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, t := range m.texts {
		if t.To == to {
			out = append(out, t.Body)
		}
	}
	return out
}

func (m *scriptMessenger) listsTo(to string) []sentList {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentList
	for _, l := range m.lists {
		if l.To == to {
			out = append(out, l)
		}
	}
	return out
}

func (m *scriptMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = nil
	m.lists = nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type engineHarness struct {
	engine    *Engine
	messenger *scriptMessenger
	db        *gorm.DB
	carts     cart.Service
	catalog   catalog.Service
	orders    orders.Service
	settings  settings.Service
	customers customers.Service
	sessions  *session.Store
}

func newEngineHarness(t *testing.T) *engineHarness {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.SavedOrderItem{},
		&models.StockNotification{},
		&models.Setting{},
		&models.ChatMessage{},
		&models.BotMessage{},
	))

	logg := logger.New(logger.Options{ServiceName: "test"})
	messenger := &scriptMessenger{}

	catalogRepo := catalog.NewRepository(gdb)
	catalogSvc, err := catalog.NewService(catalogRepo)
	require.NoError(t, err)

	cartSvc, err := cart.NewService(cart.NewStore(), cart.NewRepository(gdb), catalogRepo)
	require.NoError(t, err)

	ordersSvc, err := orders.NewService(orders.NewRepository(gdb), catalogRepo, gormTxRunner{db: gdb})
	require.NoError(t, err)

	waitlistSvc, err := waitlist.NewService(waitlist.NewRepository(gdb), messenger, logg)
	require.NoError(t, err)

	customersSvc, err := customers.NewService(customers.NewRepository(gdb))
	require.NoError(t, err)

	chatSvc, err := chat.NewService(chat.NewRepository(gdb), nil, logg)
	require.NoError(t, err)

	settingsSvc, err := settings.NewService(settings.NewRepository(gdb))
	require.NoError(t, err)

	sessions := session.NewStore()
	engine, err := NewEngine(Deps{
		Sessions:    sessions,
		Carts:       cartSvc,
		Catalog:     catalogSvc,
		Orders:      ordersSvc,
		Saved:       orders.NewSavedRepository(gdb),
		Waitlist:    waitlistSvc,
		Customers:   customersSvc,
		Chat:        chatSvc,
		Settings:    settingsSvc,
		Messenger:   messenger,
		Copy:        NewCopyStore(NewCopyRepository(gdb)),
		Logger:      logg,
		CompanyName: "YUP",
	})
	require.NoError(t, err)

	return &engineHarness{
		engine:    engine,
		messenger: messenger,
		db:        gdb,
		carts:     cartSvc,
		catalog:   catalogSvc,
		orders:    ordersSvc,
		settings:  settingsSvc,
		customers: customersSvc,
		sessions:  sessions,
	}
}

func (h *engineHarness) seedProduct(t *testing.T, name, price string, stock int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:         name,
		Price:        decimal.RequireFromString(price),
		Stock:        decimal.NewFromInt(stock),
		ContentType:  enums.ContentTypeUnit,
		ContentValue: decimal.NewFromInt(1),
	}
	require.NoError(t, h.db.Create(product).Error)
	return product
}

func (h *engineHarness) seedCustomer(t *testing.T, phone, name string) {
	t.Helper()
	_, err := h.customers.Register(context.Background(), customers.RegisterInput{Phone: phone, Name: name})
	require.NoError(t, err)
}

func (h *engineHarness) setSetting(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, h.settings.Set(context.Background(), key, value))
}

func (h *engineHarness) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

func textEvent(phone, body string) Event {
	return Event{From: phone + "@c.us", Body: body}
}

func rowEvent(phone, rowID string) Event {
	return Event{From: phone + "@c.us", ListRowID: rowID}
}

const (
	testCustomer  = "5511999990001"
	otherCustomer = "5511999990002"
	testAdmin     = "5511988880000"
)

func TestHandleEventDropsNonCustomerTraffic(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	require.NoError(t, h.engine.HandleEvent(ctx, Event{From: testCustomer + "@c.us", Body: "oi", FromMe: true}))
	require.NoError(t, h.engine.HandleEvent(ctx, Event{From: "12036304@g.us", Body: "oi", IsGroup: true}))
	require.NoError(t, h.engine.HandleEvent(ctx, Event{From: "12036304@g.us", Body: "oi"}))
	require.NoError(t, h.engine.HandleEvent(ctx, Event{From: "status@broadcast", Body: "oi"}))

	h.messenger.mu.Lock()
	defer h.messenger.mu.Unlock()
	assert.Empty(t, h.messenger.texts)
	assert.Empty(t, h.messenger.lists)
}

func TestUnknownSenderIsAutoRegisteredAndGreeted(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	require.NoError(t, h.engine.HandleEvent(ctx, Event{From: testCustomer + "@c.us", SenderName: "Maria", Body: "oi"}))

	customer, err := h.customers.Get(ctx, testCustomer)
	require.NoError(t, err)
	require.NotNil(t, customer.Name)
	assert.Equal(t, "Maria", *customer.Name)

	lists := h.messenger.listsTo(testCustomer)
	require.Len(t, lists, 1)
	assert.Contains(t, lists[0].Description, "Maria")
	assert.Equal(t, []string{rowMenuProducts, rowMenuCart, rowMenuOrders, rowMenuSavedOrder}, lists[0].RowIDs)
}

func TestRegistrationRequiredWarnsAdminAndStaysSilent(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	h.setSetting(t, settings.KeyRegistrationRequired, "true")
	h.setSetting(t, settings.KeyAdminPhone, testAdmin)

	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testCustomer, "oi")))

	warnings := h.messenger.textsTo(testAdmin)
	require.Len(t, warnings, 1)
	assert.Equal(t, Render(defaultCopy[CopyRegistrationWarning], map[string]string{"telefone": testCustomer}), warnings[0])
	assert.Empty(t, h.messenger.textsTo(testCustomer))
	assert.Empty(t, h.messenger.listsTo(testCustomer))

	// no ghost record was created either
	_, err := h.customers.Get(ctx, testCustomer)
	require.Error(t, err)
}

func TestProductPickAndQuantityFillTheCart(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	h.seedCustomer(t, testCustomer, "Maria")

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, productRowID(cheese.ID))))
	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	assert.Equal(t, Render(defaultCopy[CopyAskQuantity], map[string]string{"produto": "Queijo"}), texts[0])

	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testCustomer, "2")))
	texts = h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 2)
	assert.Equal(t, Render(defaultCopy[CopyAddedToCart], map[string]string{"quantidade": "2", "produto": "Queijo"}), texts[1])

	lists := h.messenger.listsTo(testCustomer)
	require.NotEmpty(t, lists)
	cartView := lists[len(lists)-1]
	assert.Contains(t, cartView.Description, "69.80")
	assert.Equal(t, []string{rowCartFinalize, rowCartAddMore, rowCartClear}, cartView.RowIDs)

	assert.Nil(t, h.sessions.Get(testCustomer))
	assert.True(t, h.carts.Cart(testCustomer).Total.Equal(decimal.RequireFromString("69.80")))
}

func TestInvalidQuantityKeepsAsking(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	h.seedCustomer(t, testCustomer, "Maria")

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, productRowID(cheese.ID))))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testCustomer, "muitos")))

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 2)
	assert.Equal(t, defaultCopy[CopyInvalidQuantity], texts[1])

	// the stage survives, a valid number still lands in the cart
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testCustomer, "3")))
	assert.True(t, h.carts.Cart(testCustomer).Total.Equal(decimal.RequireFromString("104.70")))
}

func TestQuantityOverStockOffersWaitlist(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 4)
	h.seedCustomer(t, testCustomer, "Maria")

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, productRowID(cheese.ID))))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testCustomer, "10")))

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 2)
	assert.Equal(t, Render(defaultCopy[CopyOutOfStock], map[string]string{"produto": "Queijo", "disponivel": "4"}), texts[1])

	lists := h.messenger.listsTo(testCustomer)
	require.NotEmpty(t, lists)
	offer := lists[len(lists)-1]
	assert.Equal(t, []string{notifyStockRowID(cheese.ID), rowWaitlistDecline}, offer.RowIDs)

	assert.Nil(t, h.sessions.Get(testCustomer))
	assert.True(t, h.carts.Cart(testCustomer).Empty())

	// declining the offer is silent
	sentBefore := len(h.messenger.textsTo(testCustomer)) + len(h.messenger.listsTo(testCustomer))
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowWaitlistDecline)))
	assert.Equal(t, sentBefore, len(h.messenger.textsTo(testCustomer))+len(h.messenger.listsTo(testCustomer)))

	var subscribed int64
	require.NoError(t, h.db.Model(&models.StockNotification{}).Count(&subscribed).Error)
	assert.Zero(t, subscribed)
}

func TestWaitlistSubscribeAndRestockFanout(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 0)
	h.seedCustomer(t, testCustomer, "Maria")
	h.seedCustomer(t, otherCustomer, "João")
	h.setSetting(t, settings.KeyAdminPhone, testAdmin)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, notifyStockRowID(cheese.ID))))
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(otherCustomer, notifyStockRowID(cheese.ID))))

	joined := Render(defaultCopy[CopyWaitlistJoined], map[string]string{"produto": "Queijo"})
	assert.Equal(t, []string{joined}, h.messenger.textsTo(testCustomer))
	assert.Equal(t, []string{joined}, h.messenger.textsTo(otherCustomer))

	// joining twice is answered, not an error
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, notifyStockRowID(cheese.ID))))
	assert.Equal(t, defaultCopy[CopyWaitlistDup], h.messenger.textsTo(testCustomer)[1])

	h.messenger.reset()

	// the admin adds stock through the panel flow
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowAdminAdjustStock)))
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, productManageRowID(cheese.ID))))

	adminLists := h.messenger.listsTo(testAdmin)
	require.NotEmpty(t, adminLists)
	assert.Equal(t, []string{rowStockAdd, rowStockRemove}, adminLists[len(adminLists)-1].RowIDs)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowStockAdd)))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "5")))

	adminTexts := h.messenger.textsTo(testAdmin)
	require.NotEmpty(t, adminTexts)
	assert.Equal(t, Render(defaultCopy[CopyStockUpdated], map[string]string{"produto": "Queijo", "estoque": "5"}), adminTexts[len(adminTexts)-1])

	restock := Render(defaultCopy[CopyRestock], map[string]string{"produto": "Queijo"})
	assert.Equal(t, []string{restock}, h.messenger.textsTo(testCustomer))
	assert.Equal(t, []string{restock}, h.messenger.textsTo(otherCustomer))

	var remaining int64
	require.NoError(t, h.db.Model(&models.StockNotification{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestFinalizeBelowMinimumIsRefused(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	sweet := h.seedProduct(t, "Doce", "10.00", 10)
	h.seedCustomer(t, testCustomer, "Maria")
	h.setSetting(t, settings.KeyMinOrderValue, "25.00")

	_, err := h.carts.Add(ctx, testCustomer, *sweet, 2)
	require.NoError(t, err)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowCartFinalize)))

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	assert.Equal(t, Render(defaultCopy[CopyMinOrder], map[string]string{"minimo": "25.00", "total": "20.00"}), texts[0])

	assert.Zero(t, h.orderCount(t))
	assert.False(t, h.carts.Cart(testCustomer).Empty())
}

func TestFinalizeConfirmsOrderAndOffersStandardOrder(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	h.seedCustomer(t, testCustomer, "Maria")
	h.setSetting(t, settings.KeyAdminPhone, testAdmin)

	_, err := h.carts.Add(ctx, testCustomer, *cheese, 2)
	require.NoError(t, err)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowCartFinalize)))

	var order models.Order
	require.NoError(t, h.db.First(&order).Error)
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("69.80")))

	updated, err := h.catalog.Get(ctx, cheese.ID)
	require.NoError(t, err)
	assert.True(t, updated.Stock.Equal(decimal.NewFromInt(8)))

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	ref := strconv.FormatUint(uint64(order.ID), 10)
	assert.Equal(t, Render(defaultCopy[CopyOrderConfirmed], map[string]string{"pedido": ref, "total": "69.80"}), texts[0])

	// the admin hears about the sale
	adminTexts := h.messenger.textsTo(testAdmin)
	require.Len(t, adminTexts, 1)
	assert.Contains(t, adminTexts[0], "Maria")
	assert.Contains(t, adminTexts[0], "69.80")

	lists := h.messenger.listsTo(testCustomer)
	require.Len(t, lists, 1)
	assert.Equal(t, []string{rowSaveOrderYes, rowSaveOrderNo}, lists[0].RowIDs)
	assert.True(t, h.carts.Cart(testCustomer).Empty())

	// accept the standard-order offer
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowSaveOrderYes)))
	texts = h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 2)
	assert.Equal(t, defaultCopy[CopySavedOrderDone], texts[1])

	var saved []models.SavedOrderItem
	require.NoError(t, h.db.Find(&saved).Error)
	require.Len(t, saved, 1)
	assert.Equal(t, cheese.ID, saved[0].ProductID)
	assert.Equal(t, 2, saved[0].Quantity)
	assert.Nil(t, h.sessions.Get(testCustomer))
}

func TestStaleCartStockIsRecheckedAtFinalize(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 5)
	h.seedCustomer(t, testCustomer, "Maria")

	_, err := h.carts.Add(ctx, testCustomer, *cheese, 5)
	require.NoError(t, err)

	// stock shrank after the cart was built
	require.NoError(t, h.db.Model(&models.Product{}).
		Where("id = ?", cheese.ID).
		Update("stock", decimal.NewFromInt(1)).Error)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowCartFinalize)))

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	assert.Equal(t, Render(defaultCopy[CopyOutOfStock], map[string]string{"produto": "Queijo", "disponivel": "1"}), texts[0])
	assert.Zero(t, h.orderCount(t))
}

func TestIdleMessageWithOpenCartOffersResume(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	h.seedCustomer(t, testCustomer, "Maria")

	_, err := h.carts.Add(ctx, testCustomer, *cheese, 2)
	require.NoError(t, err)

	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testCustomer, "oi")))

	lists := h.messenger.listsTo(testCustomer)
	require.Len(t, lists, 1)
	assert.Equal(t, Render(defaultCopy[CopyResumePrompt], map[string]string{"total": "69.80"}), lists[0].Description)
	assert.Equal(t, []string{rowResumeCart, rowRestartCart}, lists[0].RowIDs)

	// starting over clears the cart and shows the root menu again
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowRestartCart)))
	assert.True(t, h.carts.Cart(testCustomer).Empty())
	lists = h.messenger.listsTo(testCustomer)
	require.Len(t, lists, 2)
	assert.Equal(t, []string{rowMenuProducts, rowMenuCart, rowMenuOrders, rowMenuSavedOrder}, lists[1].RowIDs)
}

func TestResumePromptSurvivesRestart(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	h.seedCustomer(t, testCustomer, "Maria")
	_, err := h.carts.Add(ctx, testCustomer, *cheese, 2)
	require.NoError(t, err)

	// a fresh cart service over the same rows simulates a process restart
	restartedCarts, err := cart.NewService(cart.NewStore(), cart.NewRepository(h.db), catalog.NewRepository(h.db))
	require.NoError(t, err)
	deps := h.engine.deps
	deps.Carts = restartedCarts
	restarted, err := NewEngine(deps)
	require.NoError(t, err)

	require.NoError(t, restarted.HandleEvent(ctx, textEvent(testCustomer, "oi")))

	lists := h.messenger.listsTo(testCustomer)
	require.Len(t, lists, 1)
	assert.Equal(t, []string{rowResumeCart, rowRestartCart}, lists[0].RowIDs)
}

func TestPaymentCancellationRestoresStock(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	h.seedCustomer(t, testCustomer, "Maria")

	order, err := h.orders.Place(ctx, testCustomer, []orders.Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 3, UnitPrice: cheese.Price},
	}, enums.OrderStatusAwaitingPayment)
	require.NoError(t, err)

	ref := strconv.FormatUint(uint64(order.ID), 10)
	require.NoError(t, h.engine.HandlePaymentResolution(ctx, &payment.Resolution{
		PaymentID: "pay-9",
		Status:    enums.PaymentStatusCancelled,
		OrderRef:  ref,
	}))

	updated, err := h.catalog.Get(ctx, cheese.ID)
	require.NoError(t, err)
	assert.True(t, updated.Stock.Equal(decimal.NewFromInt(10)))

	var stored models.Order
	require.NoError(t, h.db.First(&stored, order.ID).Error)
	assert.Equal(t, enums.OrderStatusCancelled, stored.Status)

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	assert.Equal(t, Render(defaultCopy[CopyPaymentCancelled], map[string]string{"pedido": ref}), texts[0])
}

func TestPaymentApprovalConfirmsAndPrompts(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	h.seedCustomer(t, testCustomer, "Maria")

	order, err := h.orders.Place(ctx, testCustomer, []orders.Line{
		{ProductID: cheese.ID, Name: cheese.Name, Quantity: 2, UnitPrice: cheese.Price},
	}, enums.OrderStatusAwaitingPayment)
	require.NoError(t, err)

	ref := strconv.FormatUint(uint64(order.ID), 10)
	require.NoError(t, h.engine.HandlePaymentResolution(ctx, &payment.Resolution{
		PaymentID: "pay-10",
		Status:    enums.PaymentStatusApproved,
		OrderRef:  ref,
	}))

	var stored models.Order
	require.NoError(t, h.db.First(&stored, order.ID).Error)
	assert.Equal(t, enums.OrderStatusPaid, stored.Status)
	require.NotNil(t, stored.PaymentRef)
	assert.Equal(t, "pay-10", *stored.PaymentRef)

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	assert.Equal(t, Render(defaultCopy[CopyPaymentApproved], map[string]string{"pedido": ref}), texts[0])

	lists := h.messenger.listsTo(testCustomer)
	require.Len(t, lists, 1)
	assert.Equal(t, []string{rowSaveOrderYes, rowSaveOrderNo}, lists[0].RowIDs)
}

func TestSavedOrderLoadSkipsWhatNoLongerFits(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 10)
	sweet := h.seedProduct(t, "Doce", "18.00", 0)
	h.seedCustomer(t, testCustomer, "Maria")

	saved := orders.NewSavedRepository(h.db)
	require.NoError(t, saved.ReplaceForCustomer(ctx, testCustomer, []models.SavedOrderItem{
		{CustomerPhone: testCustomer, ProductID: cheese.ID, Quantity: 2},
		{CustomerPhone: testCustomer, ProductID: sweet.ID, Quantity: 1},
	}))

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowMenuSavedOrder)))

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	assert.Equal(t, defaultCopy[CopySavedOrderLoad], texts[0])

	c := h.carts.Cart(testCustomer)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, cheese.ID, c.Lines[0].ProductID)
	assert.True(t, c.Total.Equal(decimal.RequireFromString("69.80")))
}

func TestHumanModeSilencesTheBot(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	h.seedCustomer(t, testCustomer, "Maria")
	require.NoError(t, h.customers.SetHumanMode(ctx, testCustomer, true))

	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testCustomer, "oi")))

	assert.Empty(t, h.messenger.textsTo(testCustomer))
	assert.Empty(t, h.messenger.listsTo(testCustomer))
}

func TestAdminProductCreationFlow(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	h.setSetting(t, settings.KeyAdminPhone, testAdmin)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowAdminAddProduct)))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "Queijo Canastra")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "49,90")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "12")))
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, prefixContentType+"weight")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "0,5")))

	texts := h.messenger.textsTo(testAdmin)
	require.NotEmpty(t, texts)
	assert.Equal(t, Render(defaultCopy[CopyProductCreated], map[string]string{"produto": "Queijo Canastra"}), texts[len(texts)-1])

	var product models.Product
	require.NoError(t, h.db.First(&product, "name = ?", "Queijo Canastra").Error)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("49.90")))
	assert.True(t, product.Stock.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, enums.ContentTypeWeight, product.ContentType)
	assert.True(t, product.ContentValue.Equal(decimal.RequireFromString("0.5")))
	assert.Nil(t, h.sessions.Get(testAdmin))
}

func TestAdminStockRemovalBeyondShelfIsRefused(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	cheese := h.seedProduct(t, "Queijo", "34.90", 4)
	h.setSetting(t, settings.KeyAdminPhone, testAdmin)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowAdminAdjustStock)))
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, productManageRowID(cheese.ID))))
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowStockRemove)))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "10")))

	texts := h.messenger.textsTo(testAdmin)
	require.NotEmpty(t, texts)
	assert.Equal(t, Render(defaultCopy[CopyStockRemoveShort], map[string]string{
		"quantidade": "10",
		"produto":    "Queijo",
		"disponivel": "4",
	}), texts[len(texts)-1])

	updated, err := h.catalog.Get(ctx, cheese.ID)
	require.NoError(t, err)
	assert.True(t, updated.Stock.Equal(decimal.NewFromInt(4)))
}

type fakeLookup struct {
	company *lookup.Company
	err     error
}

func (f *fakeLookup) CompanyByTaxID(_ context.Context, _ string) (*lookup.Company, error) {
	return f.company, f.err
}

func TestAdminCustomerRegistrationWaitsForConfirmation(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	h.setSetting(t, settings.KeyAdminPhone, testAdmin)
	h.engine.deps.Lookup = &fakeLookup{company: &lookup.Company{
		Name:    "ACME LTDA",
		Address: "Rua A, 10",
		City:    "Campinas",
		Region:  "SP",
	}}

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowAdminAddCustomer)))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "5511999990009")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "12345678000190")))

	// nothing persisted before the yes/no answer
	_, err := h.customers.Get(ctx, "5511999990009")
	require.Error(t, err)

	lists := h.messenger.listsTo(testAdmin)
	require.NotEmpty(t, lists)
	confirm := lists[len(lists)-1]
	assert.Contains(t, confirm.Description, "ACME LTDA")
	assert.Equal(t, []string{rowCustomerConfirmYes, rowCustomerConfirmNo}, confirm.RowIDs)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowCustomerConfirmYes)))

	created, err := h.customers.Get(ctx, "5511999990009")
	require.NoError(t, err)
	require.NotNil(t, created.Name)
	assert.Equal(t, "ACME LTDA", *created.Name)
	require.NotNil(t, created.TaxID)
	assert.Equal(t, "12345678000190", *created.TaxID)
	assert.Nil(t, h.sessions.Get(testAdmin))

	texts := h.messenger.textsTo(testAdmin)
	require.NotEmpty(t, texts)
	assert.Equal(t, Render(defaultCopy[CopyCustomerRegistered], map[string]string{"nome": "ACME LTDA"}), texts[len(texts)-1])
}

func TestAdminCustomerRegistrationDeclineFallsBackToManual(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	h.setSetting(t, settings.KeyAdminPhone, testAdmin)
	h.engine.deps.Lookup = &fakeLookup{company: &lookup.Company{
		Name: "ACME LTDA", Address: "Rua A, 10", City: "Campinas", Region: "SP",
	}}

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowAdminAddCustomer)))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "5511999990009")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "12345678000190")))
	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowCustomerConfirmNo)))

	texts := h.messenger.textsTo(testAdmin)
	require.NotEmpty(t, texts)
	assert.Equal(t, defaultCopy[CopyAskCustomerName], texts[len(texts)-1])

	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "Mercearia da Ana")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "Av. B, 22")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "Sorocaba")))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "SP")))

	created, err := h.customers.Get(ctx, "5511999990009")
	require.NoError(t, err)
	require.NotNil(t, created.Name)
	assert.Equal(t, "Mercearia da Ana", *created.Name)
	require.NotNil(t, created.City)
	assert.Equal(t, "Sorocaba", *created.City)
	// the looked-up tax id survives the manual fallback
	require.NotNil(t, created.TaxID)
	assert.Equal(t, "12345678000190", *created.TaxID)
}

func TestAdminMinOrderUpdateThroughDialogue(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	h.setSetting(t, settings.KeyAdminPhone, testAdmin)

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testAdmin, rowAdminMinOrder)))
	require.NoError(t, h.engine.HandleEvent(ctx, textEvent(testAdmin, "50,00")))

	value, err := h.settings.MinOrderValue(ctx)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.RequireFromString("50.00")))

	texts := h.messenger.textsTo(testAdmin)
	require.NotEmpty(t, texts)
	assert.Equal(t, Render(defaultCopy[CopyMinOrderSet], map[string]string{"minimo": "50.00"}), texts[len(texts)-1])
}

func TestCopyOverrideChangesBotReply(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	h.seedCustomer(t, testCustomer, "Maria")
	repo := NewCopyRepository(h.db)
	require.NoError(t, SetCopy(ctx, repo, CopyCartEmpty, "Nada por aqui ainda."))

	require.NoError(t, h.engine.HandleEvent(ctx, rowEvent(testCustomer, rowMenuCart)))

	texts := h.messenger.textsTo(testCustomer)
	require.Len(t, texts, 1)
	assert.Equal(t, "Nada por aqui ainda.", texts[0])
}
