package mcpserver

import (
	"context"

	"dragon-forge/internal/node"

	"github.com/mark3labs/mcp-go/mcp"
)

// Finalization and expiry resolution are permissionless, so they need no caller identity.
func (s *Server) registerRequestTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"finalize_mint",
			mcp.WithDescription("Select the rarity level of a delivered request and mint the reward token"),
			mcp.WithNumber("sequence_number", mcp.Required(), mcp.Description("Oracle sequence number")),
		),
		s.handleFinalizeMint,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"resolve_expired_mint",
			mcp.WithDescription("Cancel and refund a request left unresolved past the expiry window"),
			mcp.WithNumber("sequence_number", mcp.Required(), mcp.Description("Oracle sequence number")),
		),
		s.handleResolveExpiredMint,
	)
}

func (s *Server) handleFinalizeMint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seq, errRes := sequenceArg(request)
	if errRes != nil {
		return errRes, nil
	}
	req, err := s.node.Engine.SelectRarityAndMint(ctx, seq)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(node.NewRequestView(req)), nil
}

func (s *Server) handleResolveExpiredMint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seq, errRes := sequenceArg(request)
	if errRes != nil {
		return errRes, nil
	}
	req, err := s.node.Engine.ResolveExpiredMint(ctx, seq)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(node.NewRequestView(req)), nil
}
