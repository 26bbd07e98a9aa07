package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tristore-backend/api/responses"
	"github.com/angelmondragon/tristore-backend/api/validators"
	internalcatalog "github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
)

// EntityDetail returns a grocery product, clothing item or menu item by type and id.
func EntityDetail(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		entityType, err := enums.ParseEntityType(chi.URLParam(r, "entityType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity type"))
			return
		}
		entityID, err := validators.ParseUUIDParam(r, "entityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entity, err := svc.GetEntity(r.Context(), entityType, entityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entity)
	}
}
