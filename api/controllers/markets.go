package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/api/middleware"
	"github.com/tavernkeep/bazaar-backend/api/responses"
	"github.com/tavernkeep/bazaar-backend/api/validators"
	"github.com/tavernkeep/bazaar-backend/internal/markets"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
)

type marketCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type marketUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

func MarketCreate(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}

		var payload marketCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), dmID, markets.CreateMarketInput{
			Name:        payload.Name,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func MarketList(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}

		list, err := svc.List(r.Context(), dmID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func MarketGet(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		marketID, err := validators.ParseUUIDParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		market, err := svc.Get(r.Context(), dmID, marketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, market)
	}
}

// MarketActive returns the DM's currently active market, or null data when
// no session is running.
func MarketActive(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}

		market, err := svc.ActiveMarket(r.Context(), dmID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, market)
	}
}

func MarketUpdate(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		marketID, err := validators.ParseUUIDParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload marketUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), dmID, marketID, markets.UpdateMarketInput{
			Name:        payload.Name,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func MarketDelete(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		marketID, err := validators.ParseUUIDParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), dmID, marketID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func MarketActivate(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		marketID, err := validators.ParseUUIDParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		market, err := svc.Activate(r.Context(), dmID, marketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, market)
	}
}

func MarketDeactivate(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		marketID, err := validators.ParseUUIDParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		market, err := svc.Deactivate(r.Context(), dmID, marketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, market)
	}
}

// requireDM pulls the authenticated DM id out of the context, writing an
// unauthorized response when the auth middleware did not run.
func requireDM(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (dmID uuid.UUID, ok bool) {
	dmID = middleware.DMIDFromContext(r.Context())
	if dmID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "dm context missing"))
		return dmID, false
	}
	return dmID, true
}
