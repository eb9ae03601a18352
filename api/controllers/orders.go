package controllers

import (
	"net/http"
	"time"

	"github.com/hometechhq/installr-backend/api/middleware"
	"github.com/hometechhq/installr-backend/api/responses"
	"github.com/hometechhq/installr-backend/api/validators"
	"github.com/hometechhq/installr-backend/internal/orders"
	"github.com/hometechhq/installr-backend/internal/store"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/logger"
	"github.com/hometechhq/installr-backend/pkg/types"
)

type createOrderRequest struct {
	ProductName     string `json:"product_name" validate:"required"`
	ServiceName     string `json:"service_name" validate:"required"`
	PriceCents      int    `json:"price_cents" validate:"required,gt=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`

	InstallationDate time.Time `json:"installation_date" validate:"required"`
	TimeSlot         string    `json:"time_slot" validate:"required"`

	Currency        string `json:"currency,omitempty"`
	PaymentSourceID string `json:"payment_source_id" validate:"required"`

	SitePhotos []photoRequest `json:"site_photos,omitempty" validate:"dive"`
}

type photoRequest struct {
	URL     string    `json:"url" validate:"required,url"`
	TakenAt time.Time `json:"taken_at,omitempty"`
}

type cancelOrderRequest struct {
	Reason          string `json:"reason,omitempty"`
	RefundRequested bool   `json:"refund_requested,omitempty"`
}

type rateOrderRequest struct {
	Stars   int    `json:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

type photosRequest struct {
	Photos []photoRequest `json:"photos" validate:"required,min=1,dive"`
}

func notOwnedErr() error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
}

func toPhotos(reqs []photoRequest, now time.Time) []types.Photo {
	photos := make([]types.Photo, 0, len(reqs))
	for _, req := range reqs {
		takenAt := req.TakenAt
		if takenAt.IsZero() {
			takenAt = now
		}
		photos = append(photos, types.Photo{URL: req.URL, TakenAt: takenAt})
	}
	return photos
}

// CreateOrder places a new order, charging the customer's payment source.
// A degraded write returns 202: the order is durable locally and will reach
// the primary store through reconciliation.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		placed, err := svc.Create(r.Context(), orders.CreateInput{
			Customer:         middleware.ActorFromContext(r.Context()),
			ProductName:      req.ProductName,
			ServiceName:      req.ServiceName,
			PriceCents:       req.PriceCents,
			DurationMinutes:  req.DurationMinutes,
			InstallationDate: req.InstallationDate,
			TimeSlot:         req.TimeSlot,
			Currency:         req.Currency,
			PaymentSourceID:  req.PaymentSourceID,
			SitePhotos:       toPhotos(req.SitePhotos, time.Now().UTC()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if placed.Degraded() {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, placed)
	}
}

// ListOrders returns the caller's merged, provenance-tagged order page.
func ListOrders(orderStore store.OrderStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := orderStore.ListForCustomer(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetOrder returns one order after an ownership check.
func GetOrder(orderStore store.OrderStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := orderStore.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if order.CustomerID != actor.ID && !actor.IsAdmin() {
			if order.TechnicianID == nil || *order.TechnicianID != actor.ID {
				responses.WriteError(r.Context(), logg, w, notOwnedErr())
				return
			}
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder lets a customer withdraw their own pending order.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orders.CancelInput{
			OrderID:         orderID,
			Actor:           middleware.ActorFromContext(r.Context()),
			Reason:          req.Reason,
			RefundRequested: req.RefundRequested,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AddSitePhotos attaches pre-visit photos to an open order.
func AddSitePhotos(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req photosRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AddSitePhotos(
			r.Context(),
			orderID,
			middleware.ActorFromContext(r.Context()),
			toPhotos(req.Photos, time.Now().UTC()),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// RateOrder records the customer's one-shot review of a completed order.
func RateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Rate(r.Context(), orders.RateInput{
			OrderID: orderID,
			Actor:   middleware.ActorFromContext(r.Context()),
			Stars:   req.Stars,
			Comment: req.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
