package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/yupvendas/storebot/internal/cart"
	"github.com/yupvendas/storebot/internal/session"
	"github.com/yupvendas/storebot/internal/whatsapp"
	"github.com/yupvendas/storebot/pkg/db/models"
)

func (e *Engine) sendRootMenu(ctx context.Context, phone string, customer *models.Customer) {
	name := "cliente"
	if customer != nil && customer.Name != nil && *customer.Name != "" {
		name = *customer.Name
	}
	greeting := e.copyText(ctx, CopyWelcome, map[string]string{
		"nome":    name,
		"empresa": e.deps.CompanyName,
	})
	sections := []whatsapp.ListSection{{
		Title: "Menu",
		Rows: []whatsapp.ListRow{
			{RowID: rowMenuProducts, Title: "Ver produtos"},
			{RowID: rowMenuCart, Title: "Ver carrinho"},
			{RowID: rowMenuOrders, Title: "Meus pedidos"},
			{RowID: rowMenuSavedOrder, Title: "Pedido padrão"},
		},
	}}
	e.sendList(ctx, phone, greeting, "Abrir menu", sections)
}

func (e *Engine) sendAdminMenu(ctx context.Context, phone string) {
	sections := []whatsapp.ListSection{
		{
			Title: "Catálogo",
			Rows: []whatsapp.ListRow{
				{RowID: rowAdminAddProduct, Title: "Cadastrar produto"},
				{RowID: rowAdminAdjustStock, Title: "Ajustar estoque"},
				{RowID: rowAdminEditProduct, Title: "Editar produto"},
				{RowID: rowAdminDeleteProduct, Title: "Excluir produto"},
			},
		},
		{
			Title: "Clientes e loja",
			Rows: []whatsapp.ListRow{
				{RowID: rowAdminAddCustomer, Title: "Cadastrar cliente"},
				{RowID: rowAdminDropCustomer, Title: "Remover cliente"},
				{RowID: rowAdminMinOrder, Title: "Pedido mínimo"},
				{RowID: rowAdminCampaign, Title: "Enviar campanha"},
			},
		},
	}
	e.sendList(ctx, phone, e.copyText(ctx, CopyAdminMenu, nil), "Abrir painel", sections)
}

// sendProductList shows in-stock products for customers. Row ids carry the
// product id.
func (e *Engine) sendProductList(ctx context.Context, phone string) {
	products, err := e.deps.Catalog.ListInStock(ctx)
	if err != nil {
		e.deps.Logger.Error(ctx, "list products failed", err)
		return
	}
	if len(products) == 0 {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyNoProducts, nil))
		return
	}
	rows := make([]whatsapp.ListRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, whatsapp.ListRow{
			RowID:       productRowID(p.ID),
			Title:       p.Name,
			Description: fmt.Sprintf("R$ %s · %s em estoque", money(p.Price), amount(p.Stock)),
		})
	}
	sections := []whatsapp.ListSection{{Title: "Produtos", Rows: rows}}
	e.sendList(ctx, phone, "Escolha um produto:", "Ver produtos", sections)
}

// sendManageProductList shows every product to the admin, including the ones
// out of stock. Row ids use the manage prefix so customer and admin picks
// never cross.
func (e *Engine) sendManageProductList(ctx context.Context, phone, description string) {
	products, err := e.deps.Catalog.List(ctx)
	if err != nil {
		e.deps.Logger.Error(ctx, "list products failed", err)
		return
	}
	if len(products) == 0 {
		e.sendText(ctx, phone, e.copyText(ctx, CopyNoProducts, nil))
		return
	}
	rows := make([]whatsapp.ListRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, whatsapp.ListRow{
			RowID:       productManageRowID(p.ID),
			Title:       p.Name,
			Description: fmt.Sprintf("R$ %s · estoque %s", money(p.Price), amount(p.Stock)),
		})
	}
	sections := []whatsapp.ListSection{{Title: "Produtos", Rows: rows}}
	e.sendList(ctx, phone, description, "Escolher produto", sections)
}

func (e *Engine) sendStockDirectionList(ctx context.Context, phone string, product *models.Product) {
	description := e.copyText(ctx, CopyAskStockAction, map[string]string{
		"produto": product.Name,
		"estoque": amount(product.Stock),
	})
	sections := []whatsapp.ListSection{{
		Title: "Estoque",
		Rows: []whatsapp.ListRow{
			{RowID: rowStockAdd, Title: "Adicionar", Description: "entrada de mercadoria"},
			{RowID: rowStockRemove, Title: "Remover", Description: "baixa ou perda"},
		},
	}}
	e.sendList(ctx, phone, description, "Escolher", sections)
}

// sendCustomerConfirmList shows the looked-up company data with the yes/no
// branch; the draft stays in the session until the admin answers.
func (e *Engine) sendCustomerConfirmList(ctx context.Context, phone string, draft session.CustomerDraft) {
	description := e.copyText(ctx, CopyTaxIDFound, map[string]string{
		"nome":     draft.Name,
		"endereco": draft.Address,
		"cidade":   draft.City,
		"uf":       draft.Region,
	})
	sections := []whatsapp.ListSection{{
		Title: "Cadastro",
		Rows: []whatsapp.ListRow{
			{RowID: rowCustomerConfirmYes, Title: "Confirmar cadastro"},
			{RowID: rowCustomerConfirmNo, Title: "Corrigir manualmente"},
		},
	}}
	e.sendList(ctx, phone, description, "Escolher", sections)
}

func (e *Engine) sendContentTypeList(ctx context.Context, phone string) {
	sections := []whatsapp.ListSection{{
		Title: "Tipo de conteúdo",
		Rows: []whatsapp.ListRow{
			{RowID: prefixContentType + "unit", Title: "Unidades", Description: "ex: caixa com 12"},
			{RowID: prefixContentType + "weight", Title: "Peso (kg)", Description: "ex: pacote de 0,5kg"},
		},
	}}
	e.sendList(ctx, phone, e.copyText(ctx, CopyAskContentType, nil), "Escolher", sections)
}

func (e *Engine) sendEditFieldList(ctx context.Context, phone string, product *models.Product) {
	sections := []whatsapp.ListSection{{
		Title: "Campos",
		Rows: []whatsapp.ListRow{
			{RowID: prefixEditField + editFieldName, Title: "Nome", Description: product.Name},
			{RowID: prefixEditField + editFieldPrice, Title: "Preço", Description: "R$ " + money(product.Price)},
			{RowID: prefixEditField + editFieldContentValue, Title: "Conteúdo", Description: amount(product.ContentValue)},
		},
	}}
	e.sendList(ctx, phone, fmt.Sprintf("O que editar em *%s*?", product.Name), "Escolher campo", sections)
}

func (e *Engine) sendCustomerRemoveList(ctx context.Context, phone string) {
	list, err := e.deps.Customers.List(ctx)
	if err != nil {
		e.deps.Logger.Error(ctx, "list customers failed", err)
		return
	}
	if len(list) == 0 {
		e.sendText(ctx, phone, "Nenhum cliente cadastrado.")
		return
	}
	rows := make([]whatsapp.ListRow, 0, len(list))
	for _, c := range list {
		title := c.Phone
		if c.Name != nil && *c.Name != "" {
			title = *c.Name
		}
		rows = append(rows, whatsapp.ListRow{
			RowID:       customerRemoveRowID(c.Phone),
			Title:       title,
			Description: c.Phone,
		})
	}
	sections := []whatsapp.ListSection{{Title: "Clientes", Rows: rows}}
	e.sendList(ctx, phone, "Qual cliente remover?", "Escolher cliente", sections)
}

// sendCartView shows the cart with the finalize/add-more/clear branch.
func (e *Engine) sendCartView(ctx context.Context, phone string, c *cart.Cart) {
	if c.Empty() {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyCartEmpty, nil))
		return
	}
	var b strings.Builder
	b.WriteString("🛒 *Seu carrinho:*\n")
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "• %dx %s — R$ %s\n", l.Quantity, l.Name, money(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n*Total: R$ %s*", money(c.Total))

	sections := []whatsapp.ListSection{{
		Title: "Carrinho",
		Rows: []whatsapp.ListRow{
			{RowID: rowCartFinalize, Title: "Finalizar pedido"},
			{RowID: rowCartAddMore, Title: "Adicionar mais itens"},
			{RowID: rowCartClear, Title: "Esvaziar carrinho"},
		},
	}}
	e.sendList(ctx, phone, b.String(), "Opções", sections)
}

func (e *Engine) sendResumePrompt(ctx context.Context, phone string, c *cart.Cart) {
	description := e.copyText(ctx, CopyResumePrompt, map[string]string{"total": money(c.Total)})
	sections := []whatsapp.ListSection{{
		Title: "Carrinho aberto",
		Rows: []whatsapp.ListRow{
			{RowID: rowResumeCart, Title: "Continuar compra"},
			{RowID: rowRestartCart, Title: "Começar de novo"},
		},
	}}
	e.sendList(ctx, phone, description, "Escolher", sections)
}

func (e *Engine) sendSaveOrderPrompt(ctx context.Context, phone string) {
	sections := []whatsapp.ListSection{{
		Title: "Pedido padrão",
		Rows: []whatsapp.ListRow{
			{RowID: rowSaveOrderYes, Title: "Salvar como padrão"},
			{RowID: rowSaveOrderNo, Title: "Não salvar"},
		},
	}}
	e.sendList(ctx, phone, e.copyText(ctx, CopyAskSaveOrder, nil), "Escolher", sections)
}

// sendWaitlistOffer offers the waitlist for a product that just ran short.
// The row id embeds the product id so the acceptance needs no session.
func (e *Engine) sendWaitlistOffer(ctx context.Context, phone string, product *models.Product) {
	description := e.copyText(ctx, CopyWaitlistOffer, map[string]string{"produto": product.Name})
	sections := []whatsapp.ListSection{{
		Title: "Aviso de estoque",
		Rows: []whatsapp.ListRow{
			{RowID: notifyStockRowID(product.ID), Title: "Me avise quando chegar"},
			{RowID: rowWaitlistDecline, Title: "Não, obrigado"},
		},
	}}
	e.sendList(ctx, phone, description, "Escolher", sections)
}
