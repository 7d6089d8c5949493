package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tavernkeep/bazaar-backend/api/responses"
	"github.com/tavernkeep/bazaar-backend/api/validators"
	"github.com/tavernkeep/bazaar-backend/internal/library"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
	"github.com/tavernkeep/bazaar-backend/pkg/pagination"
)

type libraryCreateRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Type        string          `json:"type" validate:"required"`
	Source      string          `json:"source" validate:"required"`
	Description *string         `json:"description" validate:"omitempty,max=4000"`
	Details     json.RawMessage `json:"details"`
}

type libraryUpdateRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=4000"`
	Details     json.RawMessage `json:"details"`
}

func LibraryCreate(svc library.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}

		var payload libraryCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemType, err := enums.ParseItemType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type"))
			return
		}
		source, err := enums.ParseItemSource(strings.TrimSpace(payload.Source))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item source"))
			return
		}

		created, err := svc.Create(r.Context(), dmID, library.CreateLibraryItemInput{
			Name:        payload.Name,
			Type:        itemType,
			Source:      source,
			Description: payload.Description,
			Details:     payload.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func LibraryList(svc library.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dmID, ok := requireDM(w, r, logg)
		if !ok {
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.List(r.Context(), dmID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func LibraryGet(svc library.Service, logg *logger.Logger) http.HandlerFunc {
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

		item, err := svc.Get(r.Context(), dmID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func LibraryUpdate(svc library.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload libraryUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), dmID, itemID, library.UpdateLibraryItemInput{
			Name:        payload.Name,
			Description: payload.Description,
			Details:     payload.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func LibraryDelete(svc library.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Delete(r.Context(), dmID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
