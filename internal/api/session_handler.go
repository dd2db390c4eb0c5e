package api

import (
	"net/http"

	"voyago/travel-planner/internal/service"
	"voyago/travel-planner/internal/sync"

	"github.com/gin-gonic/gin"
)

// SessionHandler holds the session service dependency.
type SessionHandler struct {
	sessionService service.SessionService
	registry       *sync.Registry
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService, registry *sync.Registry) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, registry: registry}
}

// SessionResponse is the DTO for an established session.
type SessionResponse struct {
	Subject string `json:"subject"`
	Token   string `json:"token"`
}

// Establish creates a new anonymous session. A failure here is the one
// blocking error in the system: without a session nothing else works, so
// the client is expected to show a reload banner.
func (h *SessionHandler) Establish(c *gin.Context) {
	session, err := h.sessionService.Establish()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to establish a session. Please reload and try again.")
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{Subject: session.Subject, Token: session.Token})
}

// End tears down the caller's session engine, canceling its document
// subscriptions. The token itself simply expires.
func (h *SessionHandler) End(c *gin.Context) {
	subject, err := getSubjectFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify session.")
		return
	}
	h.registry.Remove(subject)
	c.Status(http.StatusNoContent)
}
