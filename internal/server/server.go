// Package server exposes the hass client's operations as MCP tools.
// Narration events are forwarded to the calling session as
// notifications/message notifications, so the host can render progress
// while a tool call is still running.
package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/comigor/hass-tools/internal/logger"
	"github.com/comigor/hass-tools/pkg/hass"
)

const (
	serverName    = "hass-tools"
	serverVersion = "0.1.0"
)

// Server wraps one hass.Client behind an MCP tool surface.
type Server struct {
	mcp    *mcpserver.MCPServer
	client *hass.Client
}

// New builds the MCP server and registers the six tools.
func New(client *hass.Client) *Server {
	s := &Server{
		mcp:    mcpserver.NewMCPServer(serverName, serverVersion, mcpserver.WithToolCapabilities(false)),
		client: client,
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcp)
}

// ServeHTTP blocks serving streamable HTTP on addr.
func (s *Server) ServeHTTP(addr string) error {
	return mcpserver.NewStreamableHTTPServer(s.mcp).Start(addr)
}

// notifySink forwards narration events to the session that issued the
// current tool call. Outside a session (tests, direct library use) events
// are dropped rather than failing the operation.
type notifySink struct {
	mcp *mcpserver.MCPServer
}

func (s notifySink) Emit(ctx context.Context, ev hass.Event) error {
	if mcpserver.ClientSessionFromContext(ctx) == nil {
		return nil
	}
	return s.mcp.SendNotificationToClient(ctx, "notifications/message", map[string]any{
		"type": ev.Type,
		"data": ev.Data,
	})
}

// opClient derives a per-call client narrating to the caller's session.
func (s *Server) opClient() *hass.Client {
	return s.client.WithSink(notifySink{mcp: s.mcp})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.L.Error("failed to encode tool result", "error", err)
		return mcp.NewToolResultError("encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
