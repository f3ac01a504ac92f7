package middleware

import (
	"github.com/gin-gonic/gin"

	"wastewatch/web/internal/config"
	"wastewatch/web/internal/security"
	"wastewatch/web/internal/session"
)

const sessionKey = "current_session"

// Session resolves the browser's signed cookie into a session.Current before
// any page runs. A missing, tampered, or rejected cookie lands the request
// in the anonymous state; pages decide for themselves how to react.
func Session(store *session.Store, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := session.Current{State: session.StateAnonymous}

		if cookie, err := c.Cookie(cfg.CookieName); err == nil && cookie != "" {
			sessionID, err := security.VerifySessionID(cfg.CookieSecret, cookie)
			if err != nil {
				c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
			} else {
				ctx := session.WithID(c.Request.Context(), sessionID)
				c.Request = c.Request.WithContext(ctx)
				current = store.Resume(ctx, sessionID)
			}
		}

		c.Set(sessionKey, current)
		c.Next()
	}
}

// CurrentSession returns the session resolved for this request. Safe to call
// from any handler behind the Session middleware.
func CurrentSession(c *gin.Context) session.Current {
	if value, ok := c.Get(sessionKey); ok {
		if current, ok := value.(session.Current); ok {
			return current
		}
	}
	return session.Current{State: session.StateAnonymous}
}
