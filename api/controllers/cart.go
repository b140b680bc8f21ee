package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mercatolabs/storefront-backend/api/middleware"
	"github.com/mercatolabs/storefront-backend/api/responses"
	"github.com/mercatolabs/storefront-backend/api/validators"
	"github.com/mercatolabs/storefront-backend/internal/cart"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
)

type quoteItemPayload struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type quoteRequest struct {
	Items []quoteItemPayload `json:"items" validate:"required,min=1,dive"`
}

// CartQuote prices the requested items for the storefront tenant.
func CartQuote(service *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := cart.QuoteInput{Items: make([]cart.QuoteItem, 0, len(payload.Items))}
		for _, item := range payload.Items {
			input.Items = append(input.Items, cart.QuoteItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		result, err := service.Quote(r.Context(), tenantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func tenantFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.TenantIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid tenant context")
	}
	return tenantID, nil
}
