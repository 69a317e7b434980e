package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ConnState tracks a connection through the MCP handshake.
type ConnState int

const (
	StateConnected ConnState = iota
	StateInitialized
	StateReady
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateInitialized:
		return "initialized"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one MCP connection: the shared tool service plus per-connection
// handshake state. Safe for concurrent Handle calls.
type Conn struct {
	svc        *Service
	serverName string
	version    string

	mu    sync.Mutex
	state ConnState
}

// NewConn starts a connection in the Connected state.
func NewConn(svc *Service, serverName, version string) *Conn {
	return &Conn{svc: svc, serverName: serverName, version: version}
}

// State reports the connection's current handshake state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close moves the connection to Closed; subsequent requests are rejected.
func (c *Conn) Close() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

// Handle processes one JSON-RPC request and returns the response, or nil for
// notifications. Tool requests are tolerated from Initialized onward; only
// traffic before initialize is rejected.
func (c *Conn) Handle(ctx context.Context, req *models.MCPRequest) *models.MCPResponse {
	if c.State() == StateClosed {
		return errResponse(req.ID, CodeInvalidRequest, "Connection closed", nil)
	}

	switch req.Method {
	case "initialize":
		return c.handleInitialize(req)

	case "notifications/initialized":
		c.mu.Lock()
		if c.state == StateInitialized {
			c.state = StateReady
		}
		c.mu.Unlock()
		log.Debug().Msg("mcp client ready")
		return nil

	case "ping":
		return &models.MCPResponse{
			Jsonrpc: "2.0",
			Result:  map[string]string{"status": "pong"},
			ID:      req.ID,
		}

	case "tools/list":
		if resp := c.requireInitialized(req); resp != nil {
			return resp
		}
		return &models.MCPResponse{
			Jsonrpc: "2.0",
			Result:  map[string]interface{}{"tools": c.svc.ListTools()},
			ID:      req.ID,
		}

	case "tools/call":
		if resp := c.requireInitialized(req); resp != nil {
			return resp
		}
		return c.handleToolsCall(ctx, req)

	default:
		return errResponse(req.ID, CodeMethodNotFound, "Method not found",
			fmt.Sprintf("Method '%s' is not supported", req.Method))
	}
}

func (c *Conn) handleInitialize(req *models.MCPRequest) *models.MCPResponse {
	c.mu.Lock()
	if c.state == StateConnected {
		c.state = StateInitialized
	}
	c.mu.Unlock()

	return &models.MCPResponse{
		Jsonrpc: "2.0",
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{
					"listChanged": false,
				},
			},
			"serverInfo": map[string]string{
				"name":    c.serverName,
				"version": c.version,
			},
		},
		ID: req.ID,
	}
}

func (c *Conn) requireInitialized(req *models.MCPRequest) *models.MCPResponse {
	if c.State() == StateConnected {
		return errResponse(req.ID, CodeInvalidRequest, "Not initialized",
			"initialize must be called before tool requests")
	}
	return nil
}

func (c *Conn) handleToolsCall(ctx context.Context, req *models.MCPRequest) *models.MCPResponse {
	var params models.MCPToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	result, err := c.svc.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var notFound ErrToolNotFound
		if errors.As(err, &notFound) {
			return errResponse(req.ID, CodeMethodNotFound, "Tool not found",
				fmt.Sprintf("Tool '%s' is not published by this server", params.Name))
		}
		var invalid ErrInvalidArgs
		if errors.As(err, &invalid) {
			return errResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
		}
		// Pipeline failures surface as tool-level errors, not protocol errors.
		return &models.MCPResponse{
			Jsonrpc: "2.0",
			Result: models.MCPToolResult{
				Content: []models.MCPContent{{
					Type: "text",
					Text: fmt.Sprintf("Tool execution error: %s", err.Error()),
				}},
				IsError: true,
			},
			ID: req.ID,
		}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, "Internal error", err.Error())
	}
	return &models.MCPResponse{
		Jsonrpc: "2.0",
		Result: models.MCPToolResult{
			Content: []models.MCPContent{{
				Type: "text",
				Text: string(payload),
			}},
		},
		ID: req.ID,
	}
}

func errResponse(id interface{}, code int, message string, data interface{}) *models.MCPResponse {
	return &models.MCPResponse{
		Jsonrpc: "2.0",
		Error: &models.MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}
