package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewatch/web/internal/middleware"
	"wastewatch/web/internal/reports"
	"wastewatch/web/internal/security"
	"wastewatch/web/internal/session"
)

type authPage struct {
	basePage
	Mode  string // "login" or "register"
	Email string
	Name  string
}

func (h HandlerSet) LoginPage(c *gin.Context) {
	if middleware.CurrentSession(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	mode := c.Query("mode")
	if mode != "register" {
		mode = "login"
	}

	page := authPage{basePage: h.base(c, "Sign in"), Mode: mode}
	c.HTML(http.StatusOK, "login.html", page)
}

func (h HandlerSet) LoginSubmit(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	page := authPage{basePage: h.base(c, "Sign in"), Mode: "login", Email: email}

	if err := reports.ValidateLogin(email, password); err != nil {
		page.Error = err.Error()
		c.HTML(http.StatusOK, "login.html", page)
		return
	}

	current, errMsg := h.store.Login(c.Request.Context(), email, password)
	if errMsg != "" {
		page.Error = errMsg
		c.HTML(http.StatusOK, "login.html", page)
		return
	}

	h.establishCookie(c, current)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h HandlerSet) RegisterSubmit(c *gin.Context) {
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")

	page := authPage{basePage: h.base(c, "Create account"), Mode: "register", Email: email, Name: name}

	if err := reports.ValidateRegistration(name, email, password, confirm); err != nil {
		page.Error = err.Error()
		c.HTML(http.StatusOK, "login.html", page)
		return
	}

	current, errMsg := h.store.Register(c.Request.Context(), name, email, password)
	if errMsg != "" {
		page.Error = errMsg
		c.HTML(http.StatusOK, "login.html", page)
		return
	}

	h.establishCookie(c, current)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout clears the record and sends the browser back to the landing page.
func (h HandlerSet) Logout(c *gin.Context) {
	if sessionID, ok := session.IDFromContext(c.Request.Context()); ok {
		h.store.Logout(c.Request.Context(), sessionID)
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h HandlerSet) establishCookie(c *gin.Context, current session.Current) {
	signed := security.SignSessionID(h.cfg.Session.CookieSecret, current.Record.ID)
	h.setSessionCookie(c, signed)
}
