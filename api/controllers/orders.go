package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/api/middleware"
	"github.com/oaklinehq/checkout-backend/api/responses"
	checkoutsvc "github.com/oaklinehq/checkout-backend/internal/checkout"
	"github.com/oaklinehq/checkout-backend/internal/orders"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
)

// OrderDetail returns a single order owned by the caller.
func OrderDetail(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Orders are visible to their owner only; leak nothing about others.
		if order.UserID != middleware.UserIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]string{"order_id": orderID.String()}))
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderList returns the caller's recent orders, newest first.
func OrderList(repo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer"))
				return
			}
			limit = parsed
		}

		userID := middleware.UserIDFromContext(r.Context())
		list, err := repo.ListByUser(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders"))
			return
		}

		items := make([]orderResponse, 0, len(list))
		for i := range list {
			items = append(items, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"orders": items})
	}
}
