package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/tavernkeep/bazaar-backend/api/responses"
	"github.com/tavernkeep/bazaar-backend/api/validators"
	"github.com/tavernkeep/bazaar-backend/internal/inventory"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

type itemAddRequest struct {
	LibraryItemID string      `json:"library_item_id" validate:"required,uuid"`
	Price         types.Price `json:"price"`
	Stock         *int        `json:"stock" validate:"omitempty,gte=0"`
	Position      *int        `json:"position" validate:"omitempty,gte=0"`
}

type itemUpdateRequest struct {
	Price *types.Price `json:"price"`
	// Raw so an explicit null ("make unlimited") is distinguishable
	// from an absent field.
	Stock    json.RawMessage `json:"stock"`
	Position *int            `json:"position" validate:"omitempty,gte=0"`
}

func ItemAdd(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload itemAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		libraryItemID, err := validators.ParseUUIDField(payload.LibraryItemID, "library_item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Add(r.Context(), dmID, shopID, inventory.AddItemInput{
			LibraryItemID: libraryItemID,
			Price:         payload.Price,
			Stock:         payload.Stock,
			Position:      payload.Position,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ItemList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListByShop(r.Context(), dmID, shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ItemUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.UpdateItemInput{
			Price:    payload.Price,
			Position: payload.Position,
		}
		if len(payload.Stock) > 0 {
			if bytes.Equal(bytes.TrimSpace(payload.Stock), []byte("null")) {
				var unlimited *int
				input.Stock = &unlimited
			} else {
				stock, err := validators.ParseStockValue(payload.Stock)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				input.Stock = &stock
			}
		}

		updated, err := svc.Update(r.Context(), dmID, itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func ItemRemove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), dmID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
