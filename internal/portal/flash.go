package portal

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medrex/portal-gate/internal/page"
)

const flashCookie = "portal_notice"

// setFlash stores notices for the next page the browser lands on
func (s *Server) setFlash(c *gin.Context, notices []string) {
	if len(notices) == 0 {
		return
	}
	value := base64.RawURLEncoding.EncodeToString([]byte(strings.Join(notices, "\n")))
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, 60, "/", "", s.cfg.Server.SecureCookie, true)
}

// takeFlash returns and expires the pending notices
func (s *Server) takeFlash(c *gin.Context) []string {
	value, err := c.Cookie(flashCookie)
	if err != nil || value == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", s.cfg.Server.SecureCookie, true)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	return strings.Split(string(raw), "\n")
}

// redirectIfNavigated applies a recorder's navigation as a 303 with the notices flashed.
// It reports whether a redirect was written.
func (s *Server) redirectIfNavigated(c *gin.Context, rec *page.Recorder) bool {
	target, ok := rec.Navigation()
	if !ok {
		return false
	}
	s.setFlash(c, rec.Notices())
	c.Redirect(http.StatusSeeOther, target)
	return true
}
