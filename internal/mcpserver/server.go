package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"
	"dragon-forge/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Journal is the optional persisted history. Without it list_events is not registered.
type Journal interface {
	ListEvents(ctx context.Context, f store.EventFilter) ([]store.Event, error)
}

type Server struct {
	node    *node.Node
	journal Journal

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(n *node.Node, journal Journal) *Server {
	mcpSrv := server.NewMCPServer(
		"dragon-forge",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		node:       n,
		journal:    journal,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerPublicTools()
	s.registerRequestTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"account://{account}/rewards",
			"account_rewards",
			mcp.WithTemplateDescription("Pending and settled reward points of an account"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "account://") || !strings.HasSuffix(raw, "/rewards") {
				return nil, fmt.Errorf("unsupported resource uri %q", raw)
			}
			account, err := forge.ParseAddress(strings.TrimSuffix(strings.TrimPrefix(raw, "account://"), "/rewards"))
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(s.node.RewardsOf(account))
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
