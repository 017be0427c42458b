package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naledi-labs/storefront-backend/api/responses"
	"github.com/naledi-labs/storefront-backend/api/validators"
	suppliersvc "github.com/naledi-labs/storefront-backend/internal/suppliers"
	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
)

type createMethodRequest struct {
	Name      string          `json:"name" validate:"required,max=120"`
	BasePrice decimal.Decimal `json:"base_price"`
}

type linkMethodRequest struct {
	MethodID uuid.UUID `json:"method_id" validate:"required"`
}

type updateLinkRequest struct {
	IsEnabled   *bool            `json:"is_enabled,omitempty"`
	CustomPrice *decimal.Decimal `json:"custom_price,omitempty"`
	ClearPrice  bool             `json:"clear_price,omitempty"`
}

type applicableMethodResponse struct {
	MethodID       uuid.UUID       `json:"method_id"`
	Name           string          `json:"name"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	IsDefault      bool            `json:"is_default"`
}

type methodResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	IsActive  bool            `json:"is_active"`
}

// ShippingMethodsList returns the global shipping method catalog.
func ShippingMethodsList(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		methods, err := svc.ListMethods(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMethodResponses(methods))
	}
}

// ShippingMethodCreate adds a method to the global catalog.
func ShippingMethodCreate(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		var payload createMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.CreateMethod(r.Context(), payload.Name, payload.BasePrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMethodResponse(method))
	}
}

// SupplierShippingMethods resolves the methods a shopper can pick for the
// supplier right now: enabled links to active methods, override-priced.
// With ?all=true it returns the raw link rows instead, disabled ones
// included, for the back-office configuration screen.
func SupplierShippingMethods(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		supplierID, err := validators.ParseURLUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if r.URL.Query().Get("all") == "true" {
			links, err := svc.ListSupplierMethods(r.Context(), supplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, links)
			return
		}

		applicable, err := svc.ResolveApplicableMethods(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]applicableMethodResponse, 0, len(applicable))
		for _, m := range applicable {
			out = append(out, applicableMethodResponse{
				MethodID:       m.MethodID,
				Name:           m.Name,
				EffectivePrice: m.EffectivePrice,
				IsDefault:      m.IsDefault,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// SupplierLinkMethod attaches a global method to the supplier.
func SupplierLinkMethod(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		supplierID, err := validators.ParseURLUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload linkMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.LinkMethod(r.Context(), supplierID, payload.MethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, link)
	}
}

// SupplierSetDefaultMethod marks one linked method as the supplier default.
func SupplierSetDefaultMethod(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		supplierID, err := validators.ParseURLUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := validators.ParseURLUUID(r, "methodId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetDefaultMethod(r.Context(), supplierID, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "default set"})
	}
}

// SupplierUpdateLink toggles enablement or adjusts the custom price of a
// supplier's method link.
func SupplierUpdateLink(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		supplierID, err := validators.ParseURLUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := validators.ParseURLUUID(r, "methodId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateLinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.IsEnabled == nil && payload.CustomPrice == nil && !payload.ClearPrice {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update"))
			return
		}

		if payload.IsEnabled != nil {
			if err := svc.SetMethodEnabled(r.Context(), supplierID, methodID, *payload.IsEnabled); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if payload.CustomPrice != nil || payload.ClearPrice {
			price := payload.CustomPrice
			if payload.ClearPrice {
				price = nil
			}
			if err := svc.SetCustomPrice(r.Context(), supplierID, methodID, price); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func newMethodResponse(method *models.ShippingMethod) methodResponse {
	return methodResponse{
		ID:        method.ID,
		Name:      method.Name,
		BasePrice: method.BasePrice,
		IsActive:  method.IsActive,
	}
}

func newMethodResponses(methods []models.ShippingMethod) []methodResponse {
	out := make([]methodResponse, 0, len(methods))
	for i := range methods {
		out = append(out, newMethodResponse(&methods[i]))
	}
	return out
}
