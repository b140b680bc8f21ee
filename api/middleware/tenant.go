package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mercatolabs/storefront-backend/api/responses"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
)

const tenantIDHeader = "X-Tenant-Id"

// StorefrontTenant resolves the tenant for unauthenticated storefront
// traffic from the tenant header and seeds the request context. Domain-based
// resolution happens at the edge; by the time a request reaches the API the
// tenant header is present.
func StorefrontTenant(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(tenantIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tenant header missing"))
				return
			}
			tenantID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tenant header must be a uuid"))
				return
			}

			ctx := WithTenantID(r.Context(), tenantID.String())
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantContext rejects authenticated requests whose claims carried no tenant.
func TenantContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if TenantIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireDiscountManager gates mutation endpoints on the member's role.
func RequireDiscountManager(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.MemberRole(RoleFromContext(r.Context()))
			if !role.CanManageDiscounts() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage discounts"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
