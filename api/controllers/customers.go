package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yupvendas/storebot/api/responses"
	"github.com/yupvendas/storebot/api/validators"
	"github.com/yupvendas/storebot/internal/customers"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

type createCustomerRequest struct {
	Phone   string `json:"phone" validate:"required,min=8"`
	TaxID   string `json:"taxId"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Region  string `json:"region"`
}

type updateCustomerRequest struct {
	TaxID   *string `json:"taxId"`
	Name    *string `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	Region  *string `json:"region"`
}

type humanModeRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func customerPhoneParam(r *http.Request) (string, error) {
	phone := customers.NormalizePhone(chi.URLParam(r, "phone"))
	if phone == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone must contain digits")
	}
	return phone, nil
}

// CustomerList returns every registered customer.
func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CustomerDetail returns a single customer by phone.
func CustomerDetail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, err := customerPhoneParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// CustomerCreate registers a customer from the dashboard.
func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Register(r.Context(), customers.RegisterInput{
			Phone:   req.Phone,
			TaxID:   req.TaxID,
			Name:    req.Name,
			Address: req.Address,
			City:    req.City,
			Region:  req.Region,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

// CustomerUpdate patches individual customer fields.
func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, err := customerPhoneParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), phone, customers.UpdateInput{
			TaxID:   req.TaxID,
			Name:    req.Name,
			Address: req.Address,
			City:    req.City,
			Region:  req.Region,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// CustomerDelete removes a customer registration.
func CustomerDelete(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, err := customerPhoneParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), phone); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// CustomerHumanMode pauses or resumes the bot for one conversation. While
// paused, inbound messages are stored but never answered automatically.
func CustomerHumanMode(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, err := customerPhoneParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req humanModeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetHumanMode(r.Context(), phone, *req.Enabled); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"phone": phone, "humanMode": *req.Enabled})
	}
}
