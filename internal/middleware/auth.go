// Package middleware holds the guards composed onto routes at
// registration time.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userweb/internal/flash"
	"userweb/internal/session"
)

// ContextUserKey is where RequireLogin leaves the logged-in username
// for downstream handlers.
const ContextUserKey = "auth.user"

// CurrentUser returns the username RequireLogin attached, if any.
func CurrentUser(c *gin.Context) (string, bool) {
	user := c.GetString(ContextUserKey)
	return user, user != ""
}

// RequireLogin guards protected routes. Anonymous callers get a flashed
// "You need to login first" and a redirect to /login; the guarded
// handler never runs.
func RequireLogin(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
			if s.User == "" {
				flash.Push(s, "You need to login first", flash.CategoryDanger)
			}
			return nil
		})
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if sess.User == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(ContextUserKey, sess.User)
		c.Next()
	}
}
