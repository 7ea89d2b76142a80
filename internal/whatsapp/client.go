package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yupvendas/storebot/pkg/config"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// ListRow is one selectable option in an interactive list message. RowID is
// what comes back in the list-response event.
type ListRow struct {
	RowID       string `json:"rowId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups rows under a section title.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// Messenger is the outbound message surface the dialogue engine depends on.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendList(ctx context.Context, to, description, buttonText string, sections []ListSection) error
}

// Client talks to a WPPConnect server over its REST API.
type Client struct {
	http    *http.Client
	baseURL string
	session string
	token   string
}

// NewClient wires the gateway client from configuration.
func NewClient(cfg config.WhatsAppConfig) (*Client, error) {
	if cfg.GatewayURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "whatsapp gateway url required")
	}
	if cfg.Session == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "whatsapp session name required")
	}
	return &Client{
		http:    &http.Client{Timeout: 20 * time.Second},
		baseURL: cfg.GatewayURL,
		session: cfg.Session,
		token:   cfg.GatewayToken,
	}, nil
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"phone":   to,
		"message": body,
	}
	return c.post(ctx, "send-message", payload)
}

func (c *Client) SendList(ctx context.Context, to, description, buttonText string, sections []ListSection) error {
	payload := map[string]any{
		"phone":       to,
		"description": description,
		"buttonText":  buttonText,
		"sections":    sections,
	}
	return c.post(ctx, "send-list-message", payload)
}

func (c *Client) post(ctx context.Context, action string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway payload")
	}

	url := fmt.Sprintf("%s/api/%s/%s", c.baseURL, c.session, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call whatsapp gateway")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusBadRequest {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("whatsapp gateway %s returned %d", action, resp.StatusCode))
	}
	return nil
}
