package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/api/middleware"
	"github.com/hometechhq/installr-backend/api/responses"
	"github.com/hometechhq/installr-backend/api/validators"
	"github.com/hometechhq/installr-backend/internal/orders"
	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/enums"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/logger"
)

type adminCancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type adminRefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminListOrders returns every order, fallback records included.
func AdminListOrders(orderStore store.OrderStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := orderStore.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminCancelOrder cancels any non-terminal order with a recorded reason.
func AdminCancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adminCancelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orders.CancelInput{
			OrderID: orderID,
			Actor:   middleware.ActorFromContext(r.Context()),
			Reason:  req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminRefundOrder moves a completed order to refunded.
func AdminRefundOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adminRefundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Refund(r.Context(), orderID, middleware.ActorFromContext(r.Context()), req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminTransactions queries the append-only transaction log.
func AdminTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := buildTransactionFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Query(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query transactions"))
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func buildTransactionFilters(r *http.Request) (transactions.Filters, error) {
	filters := transactions.Filters{
		OrderNumber: strings.TrimSpace(r.URL.Query().Get("order_number")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		txnType := enums.TransactionType(raw)
		if !txnType.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown transaction type").WithDetails(map[string]any{"type": raw})
		}
		filters.Type = &txnType
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role := enums.ActorRole(raw)
		if !role.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown actor role").WithDetails(map[string]any{"role": raw})
		}
		filters.Role = &role
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("order_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id filter")
		}
		filters.OrderID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("performed_by")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid performed_by filter")
		}
		filters.PerformedBy = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "from must be RFC3339")
		}
		filters.From = &ts
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "to must be RFC3339")
		}
		filters.To = &ts
	}

	return filters, nil
}
