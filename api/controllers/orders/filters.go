package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tristore-backend/api/validators"
	internalorders "github.com/angelmondragon/tristore-backend/internal/orders"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
)

// parseFilters reads status, from and to. Admin listings also accept user_id and delivery_agent_id.
func parseFilters(r *http.Request, allowActorFilters bool) (internalorders.Filters, error) {
	var filters internalorders.Filters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return filters, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return filters, err
	}
	filters.DateFrom = from
	filters.DateTo = to

	if !allowActorFilters {
		return filters, nil
	}

	userID, err := validators.ParseQueryUUID(r, "user_id")
	if err != nil {
		return filters, err
	}
	agentID, err := validators.ParseQueryUUID(r, "delivery_agent_id")
	if err != nil {
		return filters, err
	}
	filters.UserID = userID
	filters.DeliveryAgentID = agentID
	return filters, nil
}
