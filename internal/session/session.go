package session

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/pkg/enums"
)

// Stage identifies which input the bot is waiting for from a sender. A sender
// with no session is idle.
type Stage string

const (
	// Admin product creation chain.
	StageProductName         Stage = "product_name"
	StageProductPrice        Stage = "product_price"
	StageProductStock        Stage = "product_stock"
	StageProductContentType  Stage = "product_content_type"
	StageProductContentValue Stage = "product_content_value"

	// Admin stock adjustment.
	StageStockProduct   Stage = "stock_product"
	StageStockDirection Stage = "stock_direction"
	StageStockQuantity  Stage = "stock_quantity"

	// Admin customer registration chain.
	StageCustomerPhone   Stage = "customer_phone"
	StageCustomerTaxID   Stage = "customer_tax_id"
	StageCustomerConfirm Stage = "customer_confirm"
	StageCustomerName    Stage = "customer_name"
	StageCustomerAddress Stage = "customer_address"
	StageCustomerCity    Stage = "customer_city"
	StageCustomerRegion  Stage = "customer_region"

	// Admin single-value edits.
	StageMinOrder     Stage = "min_order"
	StageEditProduct  Stage = "edit_product"
	StageEditField    Stage = "edit_field"
	StageEditValue    Stage = "edit_value"
	StageCampaignText Stage = "campaign_text"

	// Admin product deletion.
	StageDeleteProduct Stage = "delete_product"
	StageDeleteConfirm Stage = "delete_confirm"

	// Admin customer removal.
	StageRemoveCustomer Stage = "remove_customer"

	// Customer purchase flow.
	StageQuantity  Stage = "quantity"
	StageSaveOrder Stage = "save_order"
)

// ProductDraft accumulates the fields of a product being created, one stage
// at a time.
type ProductDraft struct {
	Name        string
	Price       decimal.Decimal
	Stock       decimal.Decimal
	ContentType enums.ContentType
}

// CustomerDraft accumulates the fields of a customer being registered by the
// admin.
type CustomerDraft struct {
	Phone   string
	TaxID   string
	Name    string
	Address string
	City    string
	Region  string
}

// Session is the per-sender dialogue state. ProductID points at the product
// the current stage operates on; EditField names the product field being
// edited when Stage is StageEditValue; StockDirection records the add/remove
// choice while Stage is StageStockQuantity.
type Session struct {
	Stage          Stage
	ProductID      uint
	OrderID        uint
	EditField      string
	StockDirection string
	Product        ProductDraft
	Customer       CustomerDraft
}

// Store keeps sessions in memory, keyed by sender phone. Sessions do not
// survive a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the sender's session, or nil when the sender is idle.
func (s *Store) Get(phone string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[phone]
}

// Put replaces the sender's session.
func (s *Store) Put(phone string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		delete(s.sessions, phone)
		return
	}
	s.sessions[phone] = sess
}

// Begin clears any previous state and starts a fresh session at the given
// stage.
func (s *Store) Begin(phone string, stage Stage) *Session {
	sess := &Session{Stage: stage}
	s.Put(phone, sess)
	return sess
}

// Clear drops the sender's session, returning them to idle.
func (s *Store) Clear(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
}
