package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wastewatch/web/internal/config"
	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/jobs"
	"wastewatch/web/internal/middleware"
	"wastewatch/web/internal/models"
	"wastewatch/web/internal/session"
)

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	client  *gateway.Client
	store   *session.Store
	monitor *jobs.Monitor
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, client *gateway.Client, store *session.Store, monitor *jobs.Monitor) HandlerSet {
	return HandlerSet{
		log:     log,
		cfg:     cfg,
		client:  client,
		store:   store,
		monitor: monitor,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.Use(middleware.Session(h.store, h.cfg.Session))

	engine.GET("/healthz", h.Health)

	engine.GET("/", h.Landing)

	engine.GET("/login", h.LoginPage)
	engine.POST("/login", h.LoginSubmit)
	engine.POST("/register", h.RegisterSubmit)
	engine.POST("/logout", h.Logout)

	engine.GET("/report", h.ReportPage)
	engine.POST("/report", h.ReportSubmit)

	engine.GET("/my-reports", h.MyReports)

	engine.GET("/map", h.MapPage)
	engine.GET("/map/data", h.MapData)

	engine.GET("/admin", h.AdminPage)

	actions := engine.Group("/admin", middleware.RequireAdmin())
	actions.POST("/reports/:id/update", h.AdminUpdateReport)
	actions.POST("/users/:id/ban", h.AdminBanUser)
}

// basePage carries the fields every template needs: who is signed in and any
// banner to show inline.
type basePage struct {
	Title         string
	Authenticated bool
	User          models.User
	Error         string
	Notice        string
}

func (h HandlerSet) base(c *gin.Context, title string) basePage {
	current := middleware.CurrentSession(c)
	page := basePage{
		Title:         title,
		Authenticated: current.Authenticated(),
	}
	if current.Authenticated() {
		page.User = current.User()
	}
	return page
}

func (h HandlerSet) setSessionCookie(c *gin.Context, signedValue string) {
	maxAge := int(h.cfg.Session.TTL.Seconds())
	c.SetCookie(h.cfg.Session.CookieName, signedValue, maxAge, "/", "", h.cfg.Session.CookieSecure, true)
}

func (h HandlerSet) clearSessionCookie(c *gin.Context) {
	c.SetCookie(h.cfg.Session.CookieName, "", -1, "/", "", h.cfg.Session.CookieSecure, true)
}
