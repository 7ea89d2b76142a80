package dialog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// Copy keys. Each has a default below; the bot_messages table overrides
// per key, editable from the dashboard.
const (
	CopyWelcome             = "welcome"
	CopyAdminMenu           = "admin_menu"
	CopyUnknownOption       = "unknown_option"
	CopyRegistrationWarning = "registration_warning"

	CopyAskQuantity     = "ask_quantity"
	CopyInvalidQuantity = "invalid_quantity"
	CopyInvalidNumber   = "invalid_number"
	CopyAddedToCart     = "added_to_cart"
	CopyCartEmpty       = "cart_empty"
	CopyCartCleared     = "cart_cleared"
	CopyResumePrompt    = "resume_prompt"
	CopyNoProducts      = "no_products"

	CopyOutOfStock     = "out_of_stock"
	CopyWaitlistOffer  = "waitlist_offer"
	CopyWaitlistJoined = "waitlist_joined"
	CopyWaitlistDup    = "waitlist_already"
	CopyRestock        = "restock"

	CopyMinOrder       = "min_order"
	CopyOrderConfirmed = "order_confirmed"
	CopyAskSaveOrder   = "ask_save_order"
	CopySavedOrderDone = "saved_order_saved"
	CopySavedOrderLoad = "saved_order_loaded"
	CopySavedOrderNone = "saved_order_empty"
	CopyNoOrders       = "no_orders"

	CopyPaymentQR        = "payment_qr"
	CopyPaymentFailed    = "payment_failed"
	CopyPaymentApproved  = "payment_approved"
	CopyPaymentCancelled = "payment_cancelled"

	CopyAskProductName   = "ask_product_name"
	CopyAskProductPrice  = "ask_product_price"
	CopyAskProductStock  = "ask_product_stock"
	CopyAskContentType   = "ask_content_type"
	CopyAskContentValue  = "ask_content_value"
	CopyProductCreated   = "product_created"
	CopyAskStockAction   = "ask_stock_action"
	CopyAskStockAmount   = "ask_stock_amount"
	CopyStockUpdated     = "stock_updated"
	CopyStockRemoveShort = "stock_remove_short"
	CopyDeleteConfirm    = "delete_confirm"
	CopyDeleteDone       = "delete_done"
	CopyDeleteAborted    = "delete_aborted"
	CopyAskEditValue     = "ask_edit_value"
	CopyEditDone         = "edit_done"

	CopyAskCustomerPhone   = "ask_customer_phone"
	CopyAskCustomerTaxID   = "ask_customer_cnpj"
	CopyTaxIDFound         = "cnpj_found"
	CopyTaxIDNotFound      = "cnpj_not_found"
	CopyAskCustomerName    = "ask_customer_name"
	CopyAskCustomerAddress = "ask_customer_address"
	CopyAskCustomerCity    = "ask_customer_city"
	CopyAskCustomerRegion  = "ask_customer_region"
	CopyCustomerRegistered = "customer_registered"
	CopyCustomerRemoved    = "customer_removed"
	CopyCustomerDup        = "customer_already_registered"

	CopyAskMinOrder  = "ask_min_order"
	CopyMinOrderSet  = "min_order_set"
	CopyAskCampaign  = "ask_campaign"
	CopyCampaignSent = "campaign_started"
)

var defaultCopy = map[string]string{
	CopyWelcome:             "Olá, {nome}! 👋 Bem-vindo à {empresa}. Como posso ajudar?",
	CopyAdminMenu:           "Painel do administrador. Escolha uma opção:",
	CopyUnknownOption:       "Não entendi. Escolha uma opção do menu.",
	CopyRegistrationWarning: "⚠️ Contato não cadastrado tentou falar com o bot: {telefone}",

	CopyAskQuantity:     "Quantas unidades de *{produto}* você deseja?",
	CopyInvalidQuantity: "Quantidade inválida. Envie um número inteiro maior que zero.",
	CopyInvalidNumber:   "Valor inválido. Envie apenas números.",
	CopyAddedToCart:     "✅ {quantidade}x *{produto}* adicionado ao carrinho.",
	CopyCartEmpty:       "Seu carrinho está vazio.",
	CopyCartCleared:     "🗑️ Carrinho esvaziado.",
	CopyResumePrompt:    "Você tem um carrinho em aberto no valor de R$ {total}. Deseja continuar?",
	CopyNoProducts:      "Nenhum produto disponível no momento.",

	CopyOutOfStock:     "😕 Temos apenas {disponivel} de *{produto}* em estoque.",
	CopyWaitlistOffer:  "Quer ser avisado quando *{produto}* voltar ao estoque?",
	CopyWaitlistJoined: "🔔 Combinado! Você será avisado quando *{produto}* chegar.",
	CopyWaitlistDup:    "Você já está na lista de aviso deste produto.",
	CopyRestock:        "🎉 Boa notícia! *{produto}* está disponível novamente. Aproveite!",

	CopyMinOrder:       "O pedido mínimo é de R$ {minimo}. Seu carrinho está em R$ {total}.",
	CopyOrderConfirmed: "✅ Pedido #{pedido} confirmado! Total: R$ {total}. Obrigado pela preferência!",
	CopyAskSaveOrder:   "Deseja salvar este pedido como seu pedido padrão?",
	CopySavedOrderDone: "📌 Pedido padrão salvo!",
	CopySavedOrderLoad: "📦 Pedido padrão carregado no carrinho.",
	CopySavedOrderNone: "Você ainda não tem um pedido padrão salvo.",
	CopyNoOrders:       "Você ainda não fez nenhum pedido.",

	CopyPaymentQR:        "💳 Pedido #{pedido} aguardando pagamento.\nPague via Pix copia e cola:\n\n{codigo}",
	CopyPaymentFailed:    "😔 Não foi possível gerar o pagamento. Seu pedido foi cancelado e o estoque liberado. Tente novamente.",
	CopyPaymentApproved:  "✅ Pagamento confirmado! Pedido #{pedido} em preparação.",
	CopyPaymentCancelled: "❌ Pagamento não concluído. Pedido #{pedido} cancelado e o estoque foi liberado.",

	CopyAskProductName:   "Qual o nome do produto?",
	CopyAskProductPrice:  "Qual o preço? (ex: 25,90)",
	CopyAskProductStock:  "Qual a quantidade em estoque?",
	CopyAskContentType:   "Como o conteúdo é medido?",
	CopyAskContentValue:  "Qual o conteúdo de cada pacote? (ex: 12 ou 0,5)",
	CopyProductCreated:   "✅ Produto *{produto}* cadastrado.",
	CopyAskStockAction:   "O que fazer com o estoque de *{produto}*? (atual: {estoque})",
	CopyAskStockAmount:   "Qual a quantidade? (ex: 10 ou 0,5)",
	CopyStockUpdated:     "📦 Estoque de *{produto}* atualizado: {estoque}.",
	CopyStockRemoveShort: "Não é possível remover {quantidade}: o estoque atual de *{produto}* é {disponivel}.",
	CopyDeleteConfirm:    "Para excluir *{produto}*, responda SIM.",
	CopyDeleteDone:       "🗑️ Produto *{produto}* excluído.",
	CopyDeleteAborted:    "Exclusão cancelada.",
	CopyAskEditValue:     "Envie o novo valor para {campo} de *{produto}*:",
	CopyEditDone:         "✏️ Produto *{produto}* atualizado.",

	CopyAskCustomerPhone:   "Qual o telefone do cliente? (com DDD)",
	CopyAskCustomerTaxID:   "Qual o CNPJ do cliente? (ou 'pular')",
	CopyTaxIDFound:         "🏢 Encontrei: {nome} — {endereco}, {cidade}/{uf}. Confirmar o cadastro?",
	CopyTaxIDNotFound:      "CNPJ não encontrado. Vamos cadastrar manualmente.",
	CopyAskCustomerName:    "Qual o nome do cliente?",
	CopyAskCustomerAddress: "Qual o endereço?",
	CopyAskCustomerCity:    "Qual a cidade?",
	CopyAskCustomerRegion:  "Qual o estado (UF)?",
	CopyCustomerRegistered: "✅ Cliente {nome} cadastrado.",
	CopyCustomerRemoved:    "🗑️ Cliente removido.",
	CopyCustomerDup:        "Este telefone já está cadastrado.",

	CopyAskMinOrder:  "Qual o novo valor mínimo de pedido? (ex: 50,00)",
	CopyMinOrderSet:  "✅ Pedido mínimo atualizado para R$ {minimo}.",
	CopyAskCampaign:  "Envie o texto da campanha. Use {nome} para personalizar.",
	CopyCampaignSent: "📣 Campanha iniciada. Você receberá um resumo ao final.",
}

// CopyRepository reads and writes bot_messages overrides.
type CopyRepository interface {
	Get(ctx context.Context, key string) (string, error)
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, content string) error
}

type copyRepositoryImpl struct {
	db *gorm.DB
}

// NewCopyRepository returns a copy repository bound to the provided database.
func NewCopyRepository(db *gorm.DB) CopyRepository {
	return &copyRepositoryImpl{db: db}
}

func (r *copyRepositoryImpl) Get(ctx context.Context, key string) (string, error) {
	var row models.BotMessage
	if err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		return "", err
	}
	return row.Content, nil
}

func (r *copyRepositoryImpl) All(ctx context.Context) (map[string]string, error) {
	var rows []models.BotMessage
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Content
	}
	return out, nil
}

func (r *copyRepositoryImpl) Set(ctx context.Context, key, content string) error {
	return r.db.WithContext(ctx).Save(&models.BotMessage{Key: key, Content: content}).Error
}

// CopyStore resolves bot copy, preferring stored overrides over the built-in
// defaults. Overrides are read fresh each time so dashboard edits take effect
// on the next message.
type CopyStore struct {
	repo CopyRepository
}

// NewCopyStore wires the copy store. The repository is optional; without it
// only defaults are served.
func NewCopyStore(repo CopyRepository) *CopyStore {
	return &CopyStore{repo: repo}
}

// Text renders the copy for key with {placeholder} interpolation.
func (c *CopyStore) Text(ctx context.Context, key string, vars map[string]string) string {
	template := defaultCopy[key]
	if c.repo != nil {
		if stored, err := c.repo.Get(ctx, key); err == nil && stored != "" {
			template = stored
		} else if err != nil && !db.IsNotFound(err) {
			// fall through to the default on read errors
		}
	}
	return Render(template, vars)
}

// Defaults returns a copy of the built-in templates, used by the dashboard to
// show editable keys.
func Defaults() map[string]string {
	out := make(map[string]string, len(defaultCopy))
	for k, v := range defaultCopy {
		out[k] = v
	}
	return out
}

// ValidCopyKey reports whether key names a known template.
func ValidCopyKey(key string) bool {
	_, ok := defaultCopy[key]
	return ok
}

// Render substitutes {name} placeholders in template.
func Render(template string, vars map[string]string) string {
	out := template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// SetCopy validates the key before writing an override.
func SetCopy(ctx context.Context, repo CopyRepository, key, content string) error {
	if !ValidCopyKey(key) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown copy key")
	}
	if err := repo.Set(ctx, key, content); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store copy override")
	}
	return nil
}
