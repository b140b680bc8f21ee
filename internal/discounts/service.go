package discounts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	stdErrors "errors"

	"github.com/mercatolabs/storefront-backend/internal/pricing"
	"github.com/mercatolabs/storefront-backend/pkg/db"
	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/metrics"
	"github.com/mercatolabs/storefront-backend/pkg/pagination"
	"github.com/mercatolabs/storefront-backend/pkg/redis"
)

// SnapshotCache is the slice of the redis client the service needs.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DiscountSnapshotKey(tenantID string) string
}

// Service owns admin CRUD for promotional rules and produces the
// engine-ready active snapshot per tenant.
type Service struct {
	repo        *Repository
	cache       SnapshotCache
	log         *logger.Logger
	metrics     *metrics.PricingMetrics
	snapshotTTL time.Duration
}

func NewService(repo *Repository, cache SnapshotCache, log *logger.Logger, pricingMetrics *metrics.PricingMetrics, snapshotTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		cache:       cache,
		log:         log,
		metrics:     pricingMetrics,
		snapshotTTL: snapshotTTL,
	}
}

var _ SnapshotCache = (*redis.Client)(nil)

// Create validates and persists a new rule, then invalidates the tenant's
// snapshot.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, input CreateDiscountInput) (*models.Discount, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount definition")
	}

	discount := &models.Discount{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         input.Name,
		Description:  input.Description,
		Type:         input.Type,
		PercentValue: input.PercentValue,
		AmountCents:  input.AmountCents,
		BuyQty:       input.BuyQty,
		PayQty:       input.PayQty,
		IsActive:     input.IsActive,
		Combinable:   input.Combinable,
		Priority:     input.Priority,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		Targets:      targetsFromInput(input.Targets),
		Conditions:   conditionsFromInput(input.Conditions),
	}

	if err := s.repo.Create(ctx, discount); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a discount with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	s.invalidateSnapshot(ctx, tenantID)
	return discount, nil
}

// Get loads one rule scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Discount, error) {
	discount, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	return discount, nil
}

// List returns one cursor page of the tenant's rules.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (DiscountPage, error) {
	page, err := s.repo.List(ctx, tenantID, params)
	if err != nil {
		return DiscountPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	return page, nil
}

// Update patches a rule's scheduling, scoping, and gating. The value payload
// stays immutable.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateDiscountInput) (*models.Discount, error) {
	discount, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		discount.Name = *input.Name
	}
	if input.Description != nil {
		discount.Description = input.Description
	}
	if input.IsActive != nil {
		discount.IsActive = *input.IsActive
	}
	if input.Combinable != nil {
		discount.Combinable = *input.Combinable
	}
	if input.Priority != nil {
		discount.Priority = *input.Priority
	}
	if input.StartsAt != nil {
		discount.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		discount.EndsAt = input.EndsAt
	}
	if input.Targets != nil {
		discount.Targets = targetsFromInput(input.Targets)
	}
	if input.Conditions != nil {
		discount.Conditions = conditionsFromInput(*input.Conditions)
	}

	if err := validateRule(ruleShape{
		Name:       discount.Name,
		Type:       discount.Type,
		Percent:    discount.PercentValue,
		Amount:     discount.AmountCents,
		Buy:        discount.BuyQty,
		Pay:        discount.PayQty,
		StartsAt:   discount.StartsAt,
		EndsAt:     discount.EndsAt,
		Targets:    targetsToInput(discount.Targets),
		Conditions: conditionsToInput(discount.Conditions),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount definition")
	}

	if err := s.repo.Update(ctx, discount); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a discount with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount")
	}
	s.invalidateSnapshot(ctx, tenantID)
	return discount, nil
}

// Delete removes a rule and invalidates the tenant's snapshot.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete discount")
	}
	s.invalidateSnapshot(ctx, tenantID)
	return nil
}

// ActiveForTenant returns the engine-ready snapshot of the tenant's rules at
// the given instant. Rows failing defensive validation are excluded with a
// warning and a metric instead of failing the caller. The snapshot is cached
// for a short TTL and invalidated on every write.
func (s *Service) ActiveForTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]pricing.Discount, error) {
	if cached, ok := s.snapshotFromCache(ctx, tenantID); ok {
		return cached, nil
	}

	rows, err := s.repo.ListActive(ctx, tenantID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active discounts")
	}

	snapshot := make([]pricing.Discount, 0, len(rows))
	for _, row := range rows {
		converted := toEngineDiscount(row)
		if err := converted.Validate(); err != nil {
			logCtx := s.log.WithDiscountID(s.log.WithTenantID(ctx, tenantID.String()), row.ID.String())
			s.log.Error(logCtx, "excluding malformed discount from snapshot", err)
			s.metrics.IncExcluded(tenantID.String())
			continue
		}
		snapshot = append(snapshot, converted)
	}

	s.snapshotToCache(ctx, tenantID, snapshot)
	return snapshot, nil
}

func (s *Service) snapshotFromCache(ctx context.Context, tenantID uuid.UUID) ([]pricing.Discount, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.DiscountSnapshotKey(tenantID.String()))
	if err != nil {
		return nil, false
	}
	var snapshot []pricing.Discount
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.log.Warn(s.log.WithTenantID(ctx, tenantID.String()), "dropping undecodable discount snapshot")
		return nil, false
	}
	return snapshot, true
}

func (s *Service) snapshotToCache(ctx context.Context, tenantID uuid.UUID, snapshot []pricing.Discount) {
	if s.cache == nil || s.snapshotTTL <= 0 {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.DiscountSnapshotKey(tenantID.String()), payload, s.snapshotTTL); err != nil {
		s.log.Warn(s.log.WithTenantID(ctx, tenantID.String()), "failed to cache discount snapshot")
	}
}

func (s *Service) invalidateSnapshot(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.DiscountSnapshotKey(tenantID.String())); err != nil {
		s.log.Warn(s.log.WithTenantID(ctx, tenantID.String()), "failed to invalidate discount snapshot")
	}
}

func targetsFromInput(inputs []TargetInput) []models.DiscountTarget {
	targets := make([]models.DiscountTarget, 0, len(inputs))
	for _, input := range inputs {
		targets = append(targets, models.DiscountTarget{
			ID:         uuid.New(),
			TargetType: input.TargetType,
			TargetID:   input.TargetID,
		})
	}
	return targets
}

func conditionsFromInput(inputs []ConditionInput) []models.DiscountCondition {
	conditions := make([]models.DiscountCondition, 0, len(inputs))
	for _, input := range inputs {
		conditions = append(conditions, models.DiscountCondition{
			ID:            uuid.New(),
			ConditionType: input.ConditionType,
			Value:         input.Value,
		})
	}
	return conditions
}

func targetsToInput(targets []models.DiscountTarget) []TargetInput {
	inputs := make([]TargetInput, 0, len(targets))
	for _, target := range targets {
		inputs = append(inputs, TargetInput{TargetType: target.TargetType, TargetID: target.TargetID})
	}
	return inputs
}

func conditionsToInput(conditions []models.DiscountCondition) []ConditionInput {
	inputs := make([]ConditionInput, 0, len(conditions))
	for _, condition := range conditions {
		inputs = append(inputs, ConditionInput{ConditionType: condition.ConditionType, Value: condition.Value})
	}
	return inputs
}

type ruleShape struct {
	Name       string
	Type       enums.DiscountType
	Percent    *float64
	Amount     *int
	Buy        *int
	Pay        *int
	StartsAt   *time.Time
	EndsAt     *time.Time
	Targets    []TargetInput
	Conditions []ConditionInput
}

func validateCreateInput(input CreateDiscountInput) error {
	return validateRule(ruleShape{
		Name:       input.Name,
		Type:       input.Type,
		Percent:    input.PercentValue,
		Amount:     input.AmountCents,
		Buy:        input.BuyQty,
		Pay:        input.PayQty,
		StartsAt:   input.StartsAt,
		EndsAt:     input.EndsAt,
		Targets:    input.Targets,
		Conditions: input.Conditions,
	})
}

// validateRule is the write-time twin of the engine's defensive validation:
// admin input is rejected strictly, including enum values the engine would
// merely treat as a non-match.
func validateRule(rule ruleShape) error {
	var err error

	if rule.Name == "" {
		err = multierr.Append(err, fmt.Errorf("name is required"))
	}
	if !rule.Type.IsValid() {
		err = multierr.Append(err, fmt.Errorf("unknown discount type %q", rule.Type))
	}

	switch rule.Type {
	case enums.DiscountTypePercentage:
		if rule.Percent == nil {
			err = multierr.Append(err, fmt.Errorf("percent_value is required for percentage discounts"))
		} else if *rule.Percent < 0 || *rule.Percent > 100 {
			err = multierr.Append(err, fmt.Errorf("percent_value must be between 0 and 100"))
		}
		if rule.Amount != nil || rule.Buy != nil || rule.Pay != nil {
			err = multierr.Append(err, fmt.Errorf("percentage discounts carry only percent_value"))
		}
	case enums.DiscountTypeFixedAmount:
		if rule.Amount == nil {
			err = multierr.Append(err, fmt.Errorf("amount_cents is required for fixed amount discounts"))
		} else if *rule.Amount < 0 {
			err = multierr.Append(err, fmt.Errorf("amount_cents must not be negative"))
		}
		if rule.Percent != nil || rule.Buy != nil || rule.Pay != nil {
			err = multierr.Append(err, fmt.Errorf("fixed amount discounts carry only amount_cents"))
		}
	case enums.DiscountTypeBuyXGetY:
		if rule.Buy == nil || rule.Pay == nil {
			err = multierr.Append(err, fmt.Errorf("buy_qty and pay_qty are required for buy x get y discounts"))
		} else {
			if *rule.Buy <= 0 || *rule.Pay <= 0 {
				err = multierr.Append(err, fmt.Errorf("buy_qty and pay_qty must be positive"))
			}
			if *rule.Pay > *rule.Buy {
				err = multierr.Append(err, fmt.Errorf("pay_qty must not exceed buy_qty"))
			}
		}
		if rule.Percent != nil || rule.Amount != nil {
			err = multierr.Append(err, fmt.Errorf("buy x get y discounts carry only buy_qty and pay_qty"))
		}
	}

	if len(rule.Targets) == 0 {
		err = multierr.Append(err, fmt.Errorf("at least one target is required"))
	}
	for i, target := range rule.Targets {
		if !target.TargetType.IsValid() {
			err = multierr.Append(err, fmt.Errorf("target %d: unknown target type %q", i, target.TargetType))
			continue
		}
		if target.TargetType == enums.DiscountTargetTypeAll {
			if target.TargetID != nil {
				err = multierr.Append(err, fmt.Errorf("target %d: all targets must not carry a target id", i))
			}
			continue
		}
		if target.TargetID == nil || *target.TargetID == uuid.Nil {
			err = multierr.Append(err, fmt.Errorf("target %d: %s targets require a target id", i, target.TargetType))
		}
	}

	for i, condition := range rule.Conditions {
		if !condition.ConditionType.IsValid() {
			err = multierr.Append(err, fmt.Errorf("condition %d: unknown condition type %q", i, condition.ConditionType))
		}
		if condition.Value < 0 {
			err = multierr.Append(err, fmt.Errorf("condition %d: value must not be negative", i))
		}
	}

	if rule.StartsAt != nil && rule.EndsAt != nil && rule.EndsAt.Before(*rule.StartsAt) {
		err = multierr.Append(err, fmt.Errorf("ends_at must not precede starts_at"))
	}

	return err
}
