package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/middleware"
	"wastewatch/web/internal/models"
	"wastewatch/web/internal/reports"
	"wastewatch/web/internal/session"
)

type adminPage struct {
	listPage
	Forbidden bool
}

// AdminPage renders the triage queue with the same in-memory filtering as
// the personal list. Non-admins see an inline access message.
func (h HandlerSet) AdminPage(c *gin.Context) {
	page := adminPage{listPage: listPage{
		basePage:     h.base(c, "Admin"),
		StatusFilter: statusFilterParam(c),
		SearchTerm:   c.Query("q"),
		Statuses:     models.Statuses(),
	}}

	current := middleware.CurrentSession(c)
	if !current.Authenticated() || !current.User().IsAdmin {
		page.Forbidden = true
		c.HTML(http.StatusOK, "admin.html", page)
		return
	}

	list, err := h.client.ListReports(c.Request.Context(), current.Token(), gateway.ListQuery{})
	if err != nil {
		page.Error = gateway.Describe(err)
		c.HTML(http.StatusOK, "admin.html", page)
		return
	}

	page.Total = len(list)
	page.Reports = reports.Filter(list, page.StatusFilter, page.SearchTerm)
	c.HTML(http.StatusOK, "admin.html", page)
}

// AdminUpdateReport round-trips the status/remarks change and re-renders the
// queue with the backend's returned copy swapped in, without refetching the
// list a second time.
func (h HandlerSet) AdminUpdateReport(c *gin.Context) {
	current := middleware.CurrentSession(c)
	reportID := c.Param("id")

	page := adminPage{listPage: listPage{
		basePage:     h.base(c, "Admin"),
		StatusFilter: statusFilterParam(c),
		SearchTerm:   c.Query("q"),
		Statuses:     models.Statuses(),
	}}

	status := models.ReportStatus(c.PostForm("status"))
	if !status.Valid() {
		page.Error = "Invalid status value."
		h.renderAdminList(c, current, page)
		return
	}

	list, err := h.client.ListReports(c.Request.Context(), current.Token(), gateway.ListQuery{})
	if err != nil {
		page.Error = gateway.Describe(err)
		c.HTML(http.StatusOK, "admin.html", page)
		return
	}

	updated, err := h.client.UpdateReport(c.Request.Context(), current.Token(), reportID, status, c.PostForm("admin_remarks"))
	if err != nil {
		page.Error = gateway.Describe(err)
	} else {
		list = reports.Replace(list, updated)
		page.Notice = "Report updated."
		h.log.Info().Str("report_id", reportID).Str("status", string(status)).Msg("report status updated")
	}

	page.Total = len(list)
	page.Reports = reports.Filter(list, page.StatusFilter, page.SearchTerm)
	c.HTML(http.StatusOK, "admin.html", page)
}

// AdminBanUser bans the report's author, then drops every report they own
// from the rendered queue. Removal is confirm-then-remove: nothing leaves
// the list until the backend has acknowledged the ban.
func (h HandlerSet) AdminBanUser(c *gin.Context) {
	current := middleware.CurrentSession(c)
	userID := c.Param("id")

	page := adminPage{listPage: listPage{
		basePage:     h.base(c, "Admin"),
		StatusFilter: statusFilterParam(c),
		SearchTerm:   c.Query("q"),
		Statuses:     models.Statuses(),
	}}

	list, err := h.client.ListReports(c.Request.Context(), current.Token(), gateway.ListQuery{})
	if err != nil {
		page.Error = gateway.Describe(err)
		c.HTML(http.StatusOK, "admin.html", page)
		return
	}

	if err := h.client.BanUser(c.Request.Context(), current.Token(), userID); err != nil {
		page.Error = gateway.Describe(err)
	} else {
		list = reports.RemoveByUser(list, userID)
		page.Notice = "User has been banned and their reports removed."
		h.log.Info().Str("banned_user_id", userID).Str("admin_id", current.User().ID).Msg("user banned")
	}

	page.Total = len(list)
	page.Reports = reports.Filter(list, page.StatusFilter, page.SearchTerm)
	c.HTML(http.StatusOK, "admin.html", page)
}

func (h HandlerSet) renderAdminList(c *gin.Context, current session.Current, page adminPage) {
	list, err := h.client.ListReports(c.Request.Context(), current.Token(), gateway.ListQuery{})
	if err != nil {
		page.Error = gateway.Describe(err)
		c.HTML(http.StatusOK, "admin.html", page)
		return
	}
	page.Total = len(list)
	page.Reports = reports.Filter(list, page.StatusFilter, page.SearchTerm)
	c.HTML(http.StatusOK, "admin.html", page)
}
