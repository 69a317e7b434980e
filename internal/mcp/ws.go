package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 15 * time.Second
	wsPongWait     = 60 * time.Second
)

// WSHandler upgrades HTTP requests to persistent MCP WebSocket connections.
// Each connection gets its own handshake state; requests on one socket run
// concurrently and responses correlate by JSON-RPC id. The socket carries
// request/response traffic only; session events stream over SSE.
type WSHandler struct {
	svc        *Service
	serverName string
	version    string
	upgrader   websocket.Upgrader
}

// NewWSHandler builds the socket endpoint. The upgrader prefers the "mcp"
// subprotocol when the client offers it and accepts any origin, matching the
// permissive CORS posture of the HTTP surface.
func NewWSHandler(svc *Service, serverName, version string) *WSHandler {
	return &WSHandler{
		svc:        svc,
		serverName: serverName,
		version:    version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			Subprotocols:    []string{"mcp"},
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	log.Info().Str("remote", r.RemoteAddr).Str("subprotocol", ws.Subprotocol()).Msg("websocket connected")

	wc := &wsConn{
		ws:   ws,
		conn: NewConn(h.svc, h.serverName, h.version),
	}
	wc.serve(r.Context())
}

// wsConn is one live socket. All writes go through writeJSON; gorilla
// connections allow a single concurrent writer.
type wsConn struct {
	ws   *websocket.Conn
	conn *Conn

	writeMu sync.Mutex
}

func (c *wsConn) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.close()

	c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go c.pingLoop(ctx)

	var wg sync.WaitGroup
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			break
		}

		var req models.MCPRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			c.writeJSON(errResponse(nil, CodeParseError, "Parse error", err.Error()))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp := c.conn.Handle(ctx, &req); resp != nil {
				c.writeJSON(resp)
			}
		}()
	}
	cancel()
	wg.Wait()
}

func (c *wsConn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *wsConn) writeJSON(v interface{}) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.ws.WriteJSON(v); err != nil {
		log.Warn().Err(err).Msg("websocket write failed")
	}
}

func (c *wsConn) close() {
	c.conn.Close()
	c.ws.Close()
	log.Debug().Msg("websocket closed")
}
