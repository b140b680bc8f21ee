package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mercatolabs/storefront-backend/api/responses"
	"github.com/mercatolabs/storefront-backend/api/validators"
	"github.com/mercatolabs/storefront-backend/internal/discounts"
	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/pagination"
)

type discountTargetPayload struct {
	TargetType string     `json:"target_type" validate:"required"`
	TargetID   *uuid.UUID `json:"target_id,omitempty"`
}

type discountConditionPayload struct {
	ConditionType string `json:"condition_type" validate:"required"`
	Value         int64  `json:"value" validate:"min=0"`
}

type createDiscountRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	Type        string  `json:"type" validate:"required"`

	PercentValue *float64 `json:"percent_value,omitempty"`
	AmountCents  *int     `json:"amount_cents,omitempty"`
	BuyQty       *int     `json:"buy_qty,omitempty"`
	PayQty       *int     `json:"pay_qty,omitempty"`

	IsActive   bool `json:"is_active"`
	Combinable bool `json:"combinable"`
	Priority   int  `json:"priority"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`

	Targets    []discountTargetPayload    `json:"targets" validate:"required,min=1,dive"`
	Conditions []discountConditionPayload `json:"conditions,omitempty" validate:"dive"`
}

type updateDiscountRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	Combinable  *bool      `json:"combinable,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`

	Targets    []discountTargetPayload     `json:"targets,omitempty" validate:"omitempty,min=1,dive"`
	Conditions *[]discountConditionPayload `json:"conditions,omitempty"`
}

type discountResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Type        string    `json:"type"`

	PercentValue *float64 `json:"percent_value,omitempty"`
	AmountCents  *int     `json:"amount_cents,omitempty"`
	BuyQty       *int     `json:"buy_qty,omitempty"`
	PayQty       *int     `json:"pay_qty,omitempty"`

	IsActive   bool `json:"is_active"`
	Combinable bool `json:"combinable"`
	Priority   int  `json:"priority"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`

	Targets    []discountTargetPayload    `json:"targets"`
	Conditions []discountConditionPayload `json:"conditions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type discountPageResponse struct {
	Items      []discountResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// AdminCreateDiscount persists a new promotional rule for the tenant.
func AdminCreateDiscount(service *discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := service.Create(r.Context(), tenantID, discounts.CreateDiscountInput{
			Name:         validators.SanitizeString(payload.Name, 200),
			Description:  payload.Description,
			Type:         enums.DiscountType(strings.ToLower(payload.Type)),
			PercentValue: payload.PercentValue,
			AmountCents:  payload.AmountCents,
			BuyQty:       payload.BuyQty,
			PayQty:       payload.PayQty,
			IsActive:     payload.IsActive,
			Combinable:   payload.Combinable,
			Priority:     payload.Priority,
			StartsAt:     payload.StartsAt,
			EndsAt:       payload.EndsAt,
			Targets:      targetsFromPayload(payload.Targets),
			Conditions:   conditionsFromPayload(payload.Conditions),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, discountToResponse(created))
	}
}

// AdminGetDiscount loads one of the tenant's rules.
func AdminGetDiscount(service *discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountID, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loaded, err := service.Get(r.Context(), tenantID, discountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discountToResponse(loaded))
	}
}

// AdminListDiscounts returns one cursor page of the tenant's rules.
func AdminListDiscounts(service *discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := service.List(r.Context(), tenantID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := discountPageResponse{
			Items:      make([]discountResponse, 0, len(page.Items)),
			NextCursor: page.NextCursor,
		}
		for i := range page.Items {
			out.Items = append(out.Items, discountToResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminUpdateDiscount patches a rule's schedule, scoping, and gating.
func AdminUpdateDiscount(service *discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountID, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := discounts.UpdateDiscountInput{
			Name:        payload.Name,
			Description: payload.Description,
			IsActive:    payload.IsActive,
			Combinable:  payload.Combinable,
			Priority:    payload.Priority,
			StartsAt:    payload.StartsAt,
			EndsAt:      payload.EndsAt,
		}
		if payload.Targets != nil {
			input.Targets = targetsFromPayload(payload.Targets)
		}
		if payload.Conditions != nil {
			converted := conditionsFromPayload(*payload.Conditions)
			input.Conditions = &converted
		}

		updated, err := service.Update(r.Context(), tenantID, discountID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discountToResponse(updated))
	}
}

// AdminDeleteDiscount removes one of the tenant's rules.
func AdminDeleteDiscount(service *discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountID, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := service.Delete(r.Context(), tenantID, discountID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, param+" must be a uuid")
	}
	return parsed, nil
}

func targetsFromPayload(payloads []discountTargetPayload) []discounts.TargetInput {
	targets := make([]discounts.TargetInput, 0, len(payloads))
	for _, payload := range payloads {
		targets = append(targets, discounts.TargetInput{
			TargetType: enums.DiscountTargetType(strings.ToLower(payload.TargetType)),
			TargetID:   payload.TargetID,
		})
	}
	return targets
}

func conditionsFromPayload(payloads []discountConditionPayload) []discounts.ConditionInput {
	conditions := make([]discounts.ConditionInput, 0, len(payloads))
	for _, payload := range payloads {
		conditions = append(conditions, discounts.ConditionInput{
			ConditionType: enums.DiscountConditionType(strings.ToLower(payload.ConditionType)),
			Value:         payload.Value,
		})
	}
	return conditions
}

func discountToResponse(row *models.Discount) discountResponse {
	out := discountResponse{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Type:         row.Type.String(),
		PercentValue: row.PercentValue,
		AmountCents:  row.AmountCents,
		BuyQty:       row.BuyQty,
		PayQty:       row.PayQty,
		IsActive:     row.IsActive,
		Combinable:   row.Combinable,
		Priority:     row.Priority,
		StartsAt:     row.StartsAt,
		EndsAt:       row.EndsAt,
		Targets:      make([]discountTargetPayload, 0, len(row.Targets)),
		Conditions:   make([]discountConditionPayload, 0, len(row.Conditions)),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	for _, target := range row.Targets {
		out.Targets = append(out.Targets, discountTargetPayload{
			TargetType: target.TargetType.String(),
			TargetID:   target.TargetID,
		})
	}
	for _, condition := range row.Conditions {
		out.Conditions = append(out.Conditions, discountConditionPayload{
			ConditionType: condition.ConditionType.String(),
			Value:         condition.Value,
		})
	}
	return out
}
