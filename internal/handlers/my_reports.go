package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/middleware"
	"wastewatch/web/internal/models"
	"wastewatch/web/internal/reports"
)

type listPage struct {
	basePage
	Reports      []models.Report
	Total        int
	StatusFilter string
	SearchTerm   string
	Statuses     []models.ReportStatus
}

// MyReports lists the signed-in user's own submissions. Status and search
// narrowing happen in memory over the fetched list; changing a filter is a
// page reload, not another backend query shape.
func (h HandlerSet) MyReports(c *gin.Context) {
	current := middleware.CurrentSession(c)

	page := listPage{
		basePage:     h.base(c, "My reports"),
		StatusFilter: statusFilterParam(c),
		SearchTerm:   c.Query("q"),
		Statuses:     models.Statuses(),
	}

	if !current.Authenticated() {
		c.HTML(http.StatusOK, "my_reports.html", page)
		return
	}

	list, err := h.client.ListReports(c.Request.Context(), current.Token(), gateway.ListQuery{UserOnly: true})
	if err != nil {
		page.Error = gateway.Describe(err)
		c.HTML(http.StatusOK, "my_reports.html", page)
		return
	}

	page.Total = len(list)
	page.Reports = reports.Filter(list, page.StatusFilter, page.SearchTerm)
	c.HTML(http.StatusOK, "my_reports.html", page)
}

func statusFilterParam(c *gin.Context) string {
	status := c.Query("status")
	if status == "" {
		return reports.StatusFilterAll
	}
	return status
}
