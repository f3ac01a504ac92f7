package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin guards the admin mutation routes. The admin page itself
// renders an inline access message for non-admins; the POST actions abort
// hard instead, since nothing sensible can be rendered mid-mutation.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		current := CurrentSession(c)
		if !current.Authenticated() {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		if !current.User().IsAdmin {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
