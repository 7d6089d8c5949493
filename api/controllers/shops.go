package controllers

import (
	"net/http"
	"strings"

	"github.com/tavernkeep/bazaar-backend/api/responses"
	"github.com/tavernkeep/bazaar-backend/api/validators"
	"github.com/tavernkeep/bazaar-backend/internal/shops"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
)

type shopCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Category    string  `json:"category" validate:"required"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Shopkeeper  *string `json:"shopkeeper" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Position    *int    `json:"position" validate:"omitempty,gte=0"`
}

type shopUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Category    *string `json:"category"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Shopkeeper  *string `json:"shopkeeper" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Position    *int    `json:"position" validate:"omitempty,gte=0"`
}

func ShopCreate(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload shopCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseShopCategory(strings.TrimSpace(payload.Category))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid shop category"))
			return
		}

		created, err := svc.Create(r.Context(), dmID, marketID, shops.CreateShopInput{
			Name:        payload.Name,
			Category:    category,
			Location:    payload.Location,
			Shopkeeper:  payload.Shopkeeper,
			Description: payload.Description,
			Position:    payload.Position,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ShopList(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListByMarket(r.Context(), dmID, marketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ShopUpdate(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		shopID, err := validators.ParseUUIDParam(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shopUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := shops.UpdateShopInput{
			Name:        payload.Name,
			Location:    payload.Location,
			Shopkeeper:  payload.Shopkeeper,
			Description: payload.Description,
			Position:    payload.Position,
		}
		if payload.Category != nil {
			category, err := enums.ParseShopCategory(strings.TrimSpace(*payload.Category))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid shop category"))
				return
			}
			input.Category = &category
		}

		updated, err := svc.Update(r.Context(), dmID, shopID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func ShopDelete(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		shopID, err := validators.ParseUUIDParam(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), dmID, shopID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
