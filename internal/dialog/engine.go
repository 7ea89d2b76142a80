package dialog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

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
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
	"github.com/yupvendas/storebot/pkg/metrics"
)

// Event is one inbound WhatsApp message, text or list response.
type Event struct {
	From       string // raw chat id, e.g. 5511999999999@c.us
	SenderName string // pushname, used for auto-registration
	Body       string
	ListRowID  string // set when the message is a list response
	FromMe     bool
	IsGroup    bool
}

// registryLookup resolves tax ids to company records.
type registryLookup interface {
	CompanyByTaxID(ctx context.Context, taxID string) (*lookup.Company, error)
}

// paymentProvider creates and resolves Pix charges.
type paymentProvider interface {
	CreatePix(ctx context.Context, req payment.PixRequest) (*payment.Intent, error)
}

// broadcaster launches a campaign send.
type broadcaster interface {
	Broadcast(ctx context.Context, message string) error
}

// Deps carries everything the engine talks to. Lookup, Payments, Campaigns
// and Metrics are optional; the rest are required.
type Deps struct {
	Sessions  *session.Store
	Carts     cart.Service
	Catalog   catalog.Service
	Orders    orders.Service
	Saved     orders.SavedRepository
	Waitlist  waitlist.Service
	Customers customers.Service
	Chat      chat.Service
	Settings  settings.Service
	Messenger whatsapp.Messenger
	Copy      *CopyStore
	Logger    *logger.Logger

	Lookup    registryLookup
	Payments  paymentProvider
	Campaigns broadcaster
	Metrics   *metrics.BotMetrics

	CompanyName string
}

// Engine is the dialogue state machine. One instance serves every sender;
// events from the same sender are serialized, events from different senders
// run concurrently.
type Engine struct {
	deps  Deps
	locks sync.Map // phone -> *sync.Mutex
}

// NewEngine wires the dialogue engine.
func NewEngine(deps Deps) (*Engine, error) {
	switch {
	case deps.Sessions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session store required")
	case deps.Carts == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart service required")
	case deps.Catalog == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog service required")
	case deps.Orders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders service required")
	case deps.Saved == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "saved-order repository required")
	case deps.Waitlist == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "waitlist service required")
	case deps.Customers == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers service required")
	case deps.Chat == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "chat service required")
	case deps.Settings == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings service required")
	case deps.Messenger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messenger required")
	case deps.Copy == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "copy store required")
	case deps.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if deps.CompanyName == "" {
		deps.CompanyName = "a loja"
	}
	return &Engine{deps: deps}, nil
}

// HandleEvent processes one inbound event to completion: state transition,
// side effects and outbound replies. Events from the bot itself, groups and
// status broadcasts are dropped.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) error {
	if ev.FromMe || ev.IsGroup {
		return nil
	}
	if strings.HasSuffix(ev.From, "@g.us") || strings.HasPrefix(ev.From, "status@") {
		return nil
	}
	phone := customers.NormalizePhone(ev.From)
	if phone == "" {
		return nil
	}

	unlock := e.lock(phone)
	defer unlock()

	ctx = e.deps.Logger.WithSender(ctx, phone)
	start := time.Now()
	stage := e.stageName(phone)
	defer func() {
		e.deps.Metrics.ObserveHandle(stage, time.Since(start))
	}()

	admin, err := e.isAdmin(ctx, ev.From, phone)
	if err != nil {
		return err
	}
	if admin {
		e.deps.Metrics.IncMessageIn("admin")
		return e.handleAdmin(ctx, phone, ev)
	}
	e.deps.Metrics.IncMessageIn("customer")
	return e.handleCustomer(ctx, phone, ev)
}

func (e *Engine) lock(phone string) func() {
	mu, _ := e.locks.LoadOrStore(phone, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (e *Engine) stageName(phone string) string {
	if sess := e.deps.Sessions.Get(phone); sess != nil {
		return string(sess.Stage)
	}
	return "idle"
}

// isAdmin matches the sender against the adminPhone setting. The match is a
// substring check so the setting works with or without country code.
func (e *Engine) isAdmin(ctx context.Context, rawFrom, phone string) (bool, error) {
	adminPhone, err := e.deps.Settings.AdminPhone(ctx)
	if err != nil {
		return false, err
	}
	adminPhone = customers.NormalizePhone(adminPhone)
	if adminPhone == "" {
		return false, nil
	}
	return strings.Contains(phone, adminPhone) || strings.Contains(rawFrom, adminPhone), nil
}

// sendText delivers one message and counts it. Send failures are logged and
// swallowed; a dead gateway must not poison dialogue state.
func (e *Engine) sendText(ctx context.Context, to, body string) {
	if err := e.deps.Messenger.SendText(ctx, to, body); err != nil {
		e.deps.Logger.Error(ctx, "send text failed", err)
		return
	}
	e.deps.Metrics.IncMessageOut()
}

func (e *Engine) sendList(ctx context.Context, to, description, button string, sections []whatsapp.ListSection) {
	if err := e.deps.Messenger.SendList(ctx, to, description, button, sections); err != nil {
		e.deps.Logger.Error(ctx, "send list failed", err)
		return
	}
	e.deps.Metrics.IncMessageOut()
}

// replyCustomer sends to a customer and mirrors the reply into chat history
// in the background.
func (e *Engine) replyCustomer(ctx context.Context, phone, body string) {
	e.sendText(ctx, phone, body)
	e.recordChat(ctx, phone, body, chat.SenderBot)
}

// recordChat persists a chat line without blocking the dialogue turn.
func (e *Engine) recordChat(ctx context.Context, phone, body, sender string) {
	if body == "" {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, err := e.deps.Chat.Record(bg, phone, body, sender); err != nil {
			e.deps.Logger.Warn(bg, "chat record failed: "+err.Error())
		}
	}()
}

func (e *Engine) copyText(ctx context.Context, key string, vars map[string]string) string {
	return e.deps.Copy.Text(ctx, key, vars)
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// amount renders stock-like decimals without trailing noise ("8", "0.5").
func amount(v decimal.Decimal) string {
	return v.String()
}

// parsePositiveInt accepts plain integers only; "3.5", "abc" and "-2" all
// fail.
func parsePositiveInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			return 0, false
		}
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// parseDecimal accepts "25,90" and "25.90" alike.
func parseDecimal(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}
