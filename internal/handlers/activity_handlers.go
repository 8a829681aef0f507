package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainworks/policygate/internal/signer"
)

// ActivityAPI is the slice of the signing service client the activity
// handlers need.
type ActivityAPI interface {
	OrganizationID() string
	ListActivities(ctx context.Context, organizationID string, activityTypes []string) ([]signer.Activity, error)
}

// ActivityHandler proxies signing-service activity history.
type ActivityHandler struct {
	common *CommonServices
}

func NewActivityHandler(common *CommonServices) *ActivityHandler {
	return &ActivityHandler{common: common}
}

// ListActivities returns recent signing-service activities, optionally
// filtered by activity type and scoped to an organization.
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	organizationID := c.Query("organization_id")
	if organizationID == "" {
		organizationID = h.common.activity.OrganizationID()
	}
	activityTypes := c.QueryArray("type")

	activities, err := h.common.activity.ListActivities(c.Request.Context(), organizationID, activityTypes)
	if err != nil {
		sendError(c, http.StatusBadGateway, "Failed to list activities", err)
		return
	}
	sendList(c, activities)
}
