package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/yupvendas/storebot/pkg/config"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// Company is the subset of the registry record the registration flow uses.
type Company struct {
	Name    string
	Address string
	City    string
	Region  string
}

// Client queries the public company registry (BrasilAPI) by tax id so admin
// registration can prefill address fields.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient wires the registry client from configuration.
func NewClient(cfg config.LookupConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "lookup base url required")
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

type cnpjResponse struct {
	RazaoSocial  string `json:"razao_social"`
	NomeFantasia string `json:"nome_fantasia"`
	Logradouro   string `json:"logradouro"`
	Numero       string `json:"numero"`
	Bairro       string `json:"bairro"`
	Municipio    string `json:"municipio"`
	UF           string `json:"uf"`
}

// CompanyByTaxID resolves a CNPJ. Unknown or malformed ids surface as
// NotFound so the dialogue can fall back to manual entry.
func (c *Client) CompanyByTaxID(ctx context.Context, taxID string) (*Company, error) {
	digits := onlyDigits(taxID)
	if len(digits) != 14 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tax id not found")
	}

	url := fmt.Sprintf("%s/api/cnpj/v1/%s", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build lookup request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call registry lookup")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tax id not found")
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("registry lookup returned %d", resp.StatusCode))
	}

	var payload cnpjResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode registry response")
	}

	name := payload.NomeFantasia
	if name == "" {
		name = payload.RazaoSocial
	}
	address := payload.Logradouro
	if payload.Numero != "" {
		address = strings.TrimSpace(address + ", " + payload.Numero)
	}
	if payload.Bairro != "" {
		address = strings.TrimSpace(address + " - " + payload.Bairro)
	}

	return &Company{
		Name:    name,
		Address: address,
		City:    payload.Municipio,
		Region:  payload.UF,
	}, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
