package controllers

import (
	"net/http"
	"time"

	"github.com/hometechhq/installr-backend/api/middleware"
	"github.com/hometechhq/installr-backend/api/responses"
	"github.com/hometechhq/installr-backend/api/validators"
	"github.com/hometechhq/installr-backend/internal/claims"
	"github.com/hometechhq/installr-backend/internal/orders"
	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/pkg/logger"
	"github.com/hometechhq/installr-backend/pkg/types"
)

type claimJobRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type declineJobRequest struct {
	Reason string `json:"reason,omitempty"`
}

type completeJobRequest struct {
	Note string `json:"note,omitempty"`
}

// AvailableJobs lists pending, unassigned orders for the job board.
func AvailableJobs(orderStore store.OrderStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := orderStore.ListUnclaimed(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AssignedJobs lists the calling technician's orders.
func AssignedJobs(orderStore store.OrderStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := orderStore.ListForTechnician(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ClaimJob races the caller against every other technician for a pending
// order. Losers get a 409 with the ALREADY_CLAIMED code.
func ClaimJob(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req claimJobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Claim(r.Context(), claims.ClaimInput{
			OrderID:      orderID,
			TechnicianID: middleware.UserIDFromContext(r.Context()),
			Technician: types.TechnicianSnapshot{
				Name:  req.Name,
				Phone: req.Phone,
				Email: req.Email,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// DeclineJob records a pass on a pending job without touching the order.
func DeclineJob(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req declineJobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Decline(r.Context(), claims.DeclineInput{
			OrderID:      orderID,
			TechnicianID: middleware.UserIDFromContext(r.Context()),
			Reason:       req.Reason,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "declined"})
	}
}

// StartJob moves an accepted order into in_progress.
func StartJob(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Start(r.Context(), orderID, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CompleteJob finishes an in-progress order. Requires installation evidence.
func CompleteJob(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req completeJobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Complete(r.Context(), orderID, middleware.ActorFromContext(r.Context()), req.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AddInstallationPhotos attaches completion evidence to an active job.
func AddInstallationPhotos(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		order, err := svc.AddInstallationPhotos(
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
