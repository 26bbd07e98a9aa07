package catalog

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tristore-backend/api/middleware"
	"github.com/angelmondragon/tristore-backend/api/responses"
	"github.com/angelmondragon/tristore-backend/api/validators"
	internalcatalog "github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
)

type openRequest struct {
	IsOpen *bool `json:"is_open" validate:"required"`
}

// prepare resolves the service and caller shared by every vendor handler.
func prepare(svc internalcatalog.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
		return auth.Actor{}, false
	}
	actor, err := middleware.ActorFromRequest(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return auth.Actor{}, false
	}
	return actor, true
}

// prepareWithID additionally reads the {id} path parameter.
func prepareWithID(svc internalcatalog.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) (auth.Actor, uuid.UUID, bool) {
	actor, ok := prepare(svc, logg, w, r)
	if !ok {
		return actor, uuid.Nil, false
	}
	id, err := validators.ParseUUIDParam(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return actor, uuid.Nil, false
	}
	return actor, id, true
}

// VendorCatalog lists everything the calling vendor sells.
func VendorCatalog(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := prepare(svc, logg, w, r)
		if !ok {
			return
		}
		catalog, err := svc.ListByVendor(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog)
	}
}

func CreateGrocery(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := prepare(svc, logg, w, r)
		if !ok {
			return
		}
		var payload internalcatalog.GroceryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entity, err := svc.CreateGrocery(r.Context(), actor, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entity)
	}
}

func UpdateGrocery(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := prepareWithID(svc, logg, w, r)
		if !ok {
			return
		}
		var payload internalcatalog.GroceryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entity, err := svc.UpdateGrocery(r.Context(), actor, id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entity)
	}
}

func DeleteGrocery(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := prepareWithID(svc, logg, w, r)
		if !ok {
			return
		}
		if err := svc.DeleteGrocery(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CreateClothing creates a clothing item together with its size/color matrix.
func CreateClothing(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := prepare(svc, logg, w, r)
		if !ok {
			return
		}
		var payload internalcatalog.ClothingInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entity, err := svc.CreateClothing(r.Context(), actor, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entity)
	}
}

// UpdateClothing replaces the item and its full variant matrix.
func UpdateClothing(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := prepareWithID(svc, logg, w, r)
		if !ok {
			return
		}
		var payload internalcatalog.ClothingInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entity, err := svc.UpdateClothing(r.Context(), actor, id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entity)
	}
}

func DeleteClothing(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := prepareWithID(svc, logg, w, r)
		if !ok {
			return
		}
		if err := svc.DeleteClothing(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CreateRestaurant(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := prepare(svc, logg, w, r)
		if !ok {
			return
		}
		var payload internalcatalog.RestaurantInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurant, err := svc.CreateRestaurant(r.Context(), actor, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, restaurant)
	}
}

// SetRestaurantOpen toggles whether the restaurant's menu can be ordered from.
func SetRestaurantOpen(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := prepareWithID(svc, logg, w, r)
		if !ok {
			return
		}
		var payload openRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurant, err := svc.SetRestaurantOpen(r.Context(), actor, id, *payload.IsOpen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurant)
	}
}

func CreateMenuItem(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := prepare(svc, logg, w, r)
		if !ok {
			return
		}
		var payload internalcatalog.MenuItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entity, err := svc.CreateMenuItem(r.Context(), actor, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entity)
	}
}

func UpdateMenuItem(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := prepareWithID(svc, logg, w, r)
		if !ok {
			return
		}
		var payload internalcatalog.MenuItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entity, err := svc.UpdateMenuItem(r.Context(), actor, id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entity)
	}
}

func DeleteMenuItem(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := prepareWithID(svc, logg, w, r)
		if !ok {
			return
		}
		if err := svc.DeleteMenuItem(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
