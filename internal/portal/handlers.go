package portal

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medrex/portal-gate/internal/page"
	"github.com/medrex/portal-gate/internal/wallet"
	"github.com/medrex/portal-gate/pkg/monitoring"
	"github.com/medrex/portal-gate/pkg/types"
)

// SessionRequest is the staged session written by the external login flow
type SessionRequest struct {
	Token   string `json:"token" binding:"required"`
	Role    string `json:"role" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// handleEntry renders the entry page with any pending notices
func (s *Server) handleEntry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":    "entry",
		"notices": s.takeFlash(c),
	})
}

// handleRolePage guards a role page through Authorize
func (s *Server) handleRolePage(role types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := page.NewRecorder()
		ctrl := s.controller(c, rec)

		result, err := ctrl.Authorize(c.Request.Context(), role)
		if !result.OK {
			s.logger.WithContext(c.Request.Context()).WithError(err).Info("Page initialization rejected")
			if !s.redirectIfNavigated(c, rec) {
				c.JSON(http.StatusForbidden, errorBody(err))
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"page":    string(role),
			"title":   role.Title(),
			"address": result.Address,
		})
	}
}

// handleAccessGuard is the non-throwing guard for client-side checks
func (s *Server) handleAccessGuard(c *gin.Context) {
	role, err := types.ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}

	rec := page.NewRecorder()
	allowed := s.controller(c, rec).ValidateAccess(c.Request.Context(), role)

	body := gin.H{"allowed": allowed, "role": string(role)}
	if target, navigated := rec.Navigation(); navigated {
		s.setFlash(c, rec.Notices())
		body["redirect"] = target
		body["notices"] = rec.Notices()
	}
	c.JSON(http.StatusOK, body)
}

// handleLogout runs the logout flow
func (s *Server) handleLogout(c *gin.Context) {
	rec := page.NewRecorder()

	role, err := s.coordinator(c, rec).Logout(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		switch kind, _ := types.KindOf(err); kind {
		case types.ErrorKindProviderUnavailable:
			status = http.StatusServiceUnavailable
		case types.ErrorKindUnrecognizedRole:
			status = http.StatusConflict
		}
		body := errorBody(err)
		body["notices"] = rec.Notices()
		c.JSON(status, body)
		return
	}

	s.logger.WithContext(c.Request.Context()).WithField("role", string(role)).Info("User logged out")
	if !s.redirectIfNavigated(c, rec) {
		c.JSON(http.StatusOK, gin.H{"role": string(role), "notices": rec.Notices()})
	}
}

// handleWriteSession persists a staged session in one write
func (s *Server) handleWriteSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	role, err := types.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}
	if !wallet.ValidAddress(req.Address) {
		c.JSON(http.StatusBadRequest, errorBody(types.NewInvalidInputError("invalid wallet address", map[string]interface{}{
			"address": req.Address,
		})))
		return
	}

	// Only the account this profile's own wallet reports may be written
	connected, err := s.walletFor(c).EnsureConnected(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errorBody(err))
		return
	}
	sess := types.Session{Token: req.Token, Role: role, Address: wallet.NormalizeAddress(req.Address)}
	if wallet.NormalizeAddress(connected) != sess.Address {
		s.logger.Security("session_write_rejected", connected, map[string]interface{}{
			"role":    string(role),
			"claimed": sess.Address,
		})
		c.JSON(http.StatusForbidden, errorBody(types.NewAccessError(types.ErrorKindAddressMismatch,
			"session address does not match the connected wallet")))
		return
	}

	if err := s.sessions.ForProfile(profileID(c)).Write(c.Request.Context(), sess); err != nil {
		status := http.StatusInternalServerError
		if types.IsKind(err, types.ErrorKindInvalidInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, errorBody(err))
		return
	}

	s.logger.Audit(sess.Address, "session_write", string(role), true, nil)
	c.JSON(http.StatusCreated, gin.H{"role": string(role), "address": sess.Address})
}

// handleAgentName resolves an agent's display name
func (s *Server) handleAgentName(c *gin.Context) {
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"name":    s.oracle.AgentName(c.Request.Context(), address),
	})
}

// handleHealth reports service health
func (s *Server) handleHealth(c *gin.Context) {
	report := s.health.CheckHealth(c.Request.Context())

	status := http.StatusOK
	if report.Status == monitoring.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    report.Status,
		"service":   report.Service,
		"timestamp": report.Timestamp.UTC().Format(time.RFC3339),
		"checks":    report.Checks,
	})
}

func errorBody(err error) gin.H {
	var accessErr *types.AccessError
	if errors.As(err, &accessErr) {
		body := gin.H{
			"error": accessErr.Message,
			"code":  accessErr.Code,
		}
		if len(accessErr.Details) > 0 {
			body["details"] = accessErr.Details
		}
		return body
	}
	if err == nil {
		return gin.H{"error": "request rejected"}
	}
	return gin.H{"error": err.Error()}
}
