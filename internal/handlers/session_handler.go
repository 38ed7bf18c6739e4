package handlers

import (
	"net/http"

	"github.com/postcraft/backend/internal/middleware"
	"github.com/postcraft/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type SessionHandler struct {
	auth *middleware.Authenticator
	log  logrus.FieldLogger
}

func NewSessionHandler(auth *middleware.Authenticator, log logrus.FieldLogger) *SessionHandler {
	return &SessionHandler{auth: auth, log: log}
}

// Logout revokes the presented token
// @Summary Logout
// @Description Revokes the bearer token until it expires. Without Redis this is a no-op.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /auth/logout [post]
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Revoke(r.Context(), r); err != nil {
		h.log.WithError(err).Error("token revocation failed")
		services.SendErrorResponse(w, services.NewAPIError(http.StatusInternalServerError, services.CodeInternal, "Failed to revoke session"))
		return
	}
	services.SendJSON(w, http.StatusOK, map[string]bool{"success": true})
}
