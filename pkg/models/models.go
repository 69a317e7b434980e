// Package models defines the shared data types for the portal UX agent:
// the component/template/composition domain model and the JSON-RPC wire
// types spoken by the MCP transports.
package models

import (
	"encoding/json"
	"time"
)

// ── Component Specs ──────────────────────────────────────────

// ComponentKind discriminates the closed set of renderable UI components.
type ComponentKind string

const (
	KindMetricCard ComponentKind = "MetricCard"
	KindChart      ComponentKind = "Chart"
	KindTable      ComponentKind = "Table"
	KindCard       ComponentKind = "Card"
	KindNavItem    ComponentKind = "NavItem"
	KindListColumn ComponentKind = "ListColumn"
	KindListCard   ComponentKind = "ListCard"
	KindInput      ComponentKind = "Input"
	KindTextarea   ComponentKind = "Textarea"
	KindSelect     ComponentKind = "Select"
	KindCheckbox   ComponentKind = "Checkbox"
	KindSwitch     ComponentKind = "Switch"
	KindAlert      ComponentKind = "Alert"
	KindSearchBox  ComponentKind = "SearchBox"
)

// LibraryShadcn is the only component library currently shipped.
const LibraryShadcn = "shadcn"

// ComponentSpec is one typed UI element descriptor. Props always validate
// against the schema for Kind once the spec has passed through the
// components validator; untrusted payloads must never skip it.
type ComponentSpec struct {
	ID      string                 `json:"id"`
	Kind    ComponentKind          `json:"kind"`
	Library string                 `json:"library"`
	Slot    string                 `json:"slot"`
	Props   map[string]interface{} `json:"props"`
}

// ── Templates ────────────────────────────────────────────────

// Slot is a named insertion point in a template skeleton, restricted to a
// set of accepted component kinds.
type Slot struct {
	Name    string          `json:"name"`
	Accepts []ComponentKind `json:"accepts"`
}

// Template is a static named layout. Immutable after registry load.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Slots       []Slot   `json:"slots"`
	Styles      []string `json:"styles,omitempty"`
	Scripts     []string `json:"scripts,omitempty"`
	HTML        string   `json:"html"`
}

// ── Intent ───────────────────────────────────────────────────

// Intent is the normalized, validated description of what UI to build,
// derived from a free-text request via the external model. Never mutated
// after normalization.
type Intent struct {
	Template   string          `json:"template"`
	Components []ComponentSpec `json:"components"`
	Styles     []string        `json:"styles"`
	Scripts    []string        `json:"scripts"`
}

// ── Composition ──────────────────────────────────────────────

// Composition is the resolved, render-ready bundle for one user. A new
// composition for a userId fully replaces the prior one.
type Composition struct {
	SessionID    string          `json:"sessionId"` // internal correlation id
	UserID       string          `json:"userId"`    // primary lookup key
	Template     string          `json:"template"`
	Components   []ComponentSpec `json:"components"`
	Styles       []string        `json:"styles"`
	Scripts      []string        `json:"scripts"`
	TemplateData Template        `json:"templateData"`
	UserMessage  string          `json:"userMessage,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ── Stream Events ────────────────────────────────────────────

// Lifecycle event types published during a tool call, in this order.
const (
	EventIntentCompleted    = "intent:completed"
	EventCompositionCreated = "composition:created"
	EventRenderReady        = "render:ready"
)

// StreamEvent is an ephemeral per-session event. Delivered at most once to
// each subscriber attached at publish time; never persisted or replayed.
type StreamEvent struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ── Tool Surface ─────────────────────────────────────────────

// ToolCallArgs are the arguments of the create_portal_ui tool.
type ToolCallArgs struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

// ToolCallResult is the structured result of a tool call. On failure only
// Success and Error are set.
type ToolCallResult struct {
	Success     bool         `json:"success"`
	UserID      string       `json:"userId,omitempty"`
	SessionID   string       `json:"sessionId,omitempty"`
	ViewURL     string       `json:"viewUrl,omitempty"`
	Composition *Composition `json:"composition,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// ── MCP Protocol Types ───────────────────────────────────────

type MCPRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

type MCPResponse struct {
	Jsonrpc string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type MCPToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

type MCPToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type MCPToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

type MCPContent struct {
	Type string `json:"type"` // text, image, resource
	Text string `json:"text,omitempty"`
}
