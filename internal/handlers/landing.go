package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/middleware"
	"wastewatch/web/internal/models"
	"wastewatch/web/internal/reports"
)

const recentReportsLimit = 6

type landingPage struct {
	basePage
	Stats         models.Stats
	RecentReports []models.Report
}

// Landing renders the dashboard. Admins get backend-computed stats, signed-in
// users get counts over their own reports, visitors get the recent public
// feed. Fetch failures degrade to zeroed stats with an inline banner.
func (h HandlerSet) Landing(c *gin.Context) {
	current := middleware.CurrentSession(c)
	page := landingPage{basePage: h.base(c, "WasteWatch")}

	ctx := c.Request.Context()

	recent, err := h.client.ListReports(ctx, current.Token(), gateway.ListQuery{Limit: recentReportsLimit})
	if err != nil {
		page.Error = gateway.Describe(err)
	} else {
		page.RecentReports = recent
	}

	switch {
	case current.Authenticated() && current.User().IsAdmin:
		stats, err := h.client.DashboardStats(ctx, current.Token())
		if err != nil {
			page.Error = gateway.Describe(err)
		} else {
			page.Stats = stats
		}
	case current.Authenticated():
		mine, err := h.client.ListReports(ctx, current.Token(), gateway.ListQuery{UserOnly: true})
		if err != nil {
			page.Error = gateway.Describe(err)
		} else {
			page.Stats = reports.CountByStatus(mine)
		}
	default:
		page.Stats = reports.CountByStatus(recent)
	}

	c.HTML(http.StatusOK, "landing.html", page)
}
