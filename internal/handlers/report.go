package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/middleware"
	"wastewatch/web/internal/models"
	"wastewatch/web/internal/reports"
)

type reportPage struct {
	basePage
	Description string
	Latitude    string
	Longitude   string
	Submitted   bool
	Created     models.Report
}

// ReportPage renders the submission form. Anonymous visitors get a sign-in
// prompt in place of the form, never a redirect.
func (h HandlerSet) ReportPage(c *gin.Context) {
	page := reportPage{basePage: h.base(c, "Report an issue")}
	c.HTML(http.StatusOK, "report.html", page)
}

// ReportSubmit validates the form before touching the network: a short
// description or missing coordinates never produce a backend call.
func (h HandlerSet) ReportSubmit(c *gin.Context) {
	current := middleware.CurrentSession(c)

	page := reportPage{
		basePage:    h.base(c, "Report an issue"),
		Description: c.PostForm("description"),
		Latitude:    c.PostForm("latitude"),
		Longitude:   c.PostForm("longitude"),
	}

	if !current.Authenticated() {
		page.Error = "You must be logged in to submit a report. Please sign in first."
		c.HTML(http.StatusOK, "report.html", page)
		return
	}

	submission, err := reports.ValidateSubmission(page.Description, page.Latitude, page.Longitude)
	if err != nil {
		page.Error = err.Error()
		c.HTML(http.StatusOK, "report.html", page)
		return
	}

	input := gateway.CreateReportInput{
		Description: submission.Description,
		Latitude:    submission.Latitude,
		Longitude:   submission.Longitude,
	}

	if file, header, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		input.Image = file
		input.ImageName = header.Filename
	}

	created, err := h.client.CreateReport(c.Request.Context(), current.Token(), input)
	if err != nil {
		page.Error = gateway.Describe(err)
		c.HTML(http.StatusOK, "report.html", page)
		return
	}

	h.log.Info().Str("report_id", created.ID).Str("user_id", current.User().ID).Msg("report submitted")

	page.Submitted = true
	page.Created = created
	page.Description = ""
	page.Latitude = ""
	page.Longitude = ""
	c.HTML(http.StatusOK, "report.html", page)
}
