package api

import (
	"fmt"
	"log"
	"net/http"

	"voyago/travel-planner/internal/sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
)

// StreamHandler serves the websocket push channel: every change the
// session's subscriptions observe is forwarded to the browser as a full
// snapshot frame.
type StreamHandler struct {
	registry  *sync.Registry
	catalog   *sync.Catalog
	jwtSecret string
	upgrader  websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(registry *sync.Registry, catalog *sync.Catalog, jwtSecret string) *StreamHandler {
	return &StreamHandler{
		registry:  registry,
		catalog:   catalog,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin is enforced by the session token, not the header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// snapshotFrame is one websocket delivery.
type snapshotFrame struct {
	Type     string         `json:"type"`
	Snapshot *sync.Snapshot `json:"snapshot,omitempty"`
	Trips    interface{}    `json:"trips,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// StreamTrip upgrades to a websocket, selects the trip for the caller's
// session and forwards every subsequent view change. Closing the socket
// unsubscribes; the engine itself stays bound to the session.
func (h *StreamHandler) StreamTrip(c *gin.Context) {
	subject, ok := h.subjectFromRequest(c)
	if !ok {
		return
	}
	engine := h.registry.Engine(subject)
	if err := engine.Select(c.Param("id")); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to subscribe to trip.")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	snapshots, unsubscribe := engine.Subscribe()
	defer unsubscribe()

	// The browser never sends data frames; this pump only notices close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Deliver the current view first, then every change.
	if err := writeSnapshot(conn, engine.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case snap := <-snapshots:
			if err := writeSnapshot(conn, snap); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// StreamCatalog upgrades to a websocket and forwards the full trip list on
// every collection change, newest first.
func (h *StreamHandler) StreamCatalog(c *gin.Context) {
	if _, ok := h.subjectFromRequest(c); !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.catalog.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(snapshotFrame{Type: "catalog", Trips: h.catalog.Snapshot()}); err != nil {
		return
	}
	for {
		select {
		case trips := <-updates:
			if err := conn.WriteJSON(snapshotFrame{Type: "catalog", Trips: trips}); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap sync.Snapshot) error {
	frame := snapshotFrame{Type: "snapshot", Snapshot: &snap}
	if snap.Notice != "" {
		// Non-fatal: the subscription hit a permission problem but the
		// last-observed state is still shown.
		frame.Error = snap.Notice
	}
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("WARN: websocket write failed: %v", err)
		return err
	}
	return nil
}

// subjectFromRequest resolves the session subject. Browsers cannot set an
// Authorization header on a websocket handshake, so a "token" query
// parameter is accepted as well.
func (h *StreamHandler) subjectFromRequest(c *gin.Context) (string, bool) {
	if subject, err := getSubjectFromContext(c); err == nil {
		return subject, true
	}
	tokenString := c.Query("token")
	if tokenString == "" {
		abortWithError(c, http.StatusUnauthorized, "Missing session token.")
		return "", false
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		abortWithError(c, http.StatusUnauthorized, "Invalid session token.")
		return "", false
	}
	return claims.Subject, true
}
