package mcpserver

import (
	"context"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"
	"dragon-forge/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublicTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_rewards",
			mcp.WithDescription("Get pending and settled reward points of an account"),
			mcp.WithString("account", mcp.Required(), mcp.Description("0x-prefixed account address")),
		),
		s.handleGetRewards,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_staked_tokens",
			mcp.WithDescription("List staked dragon ids of an account with their stake timestamps"),
			mcp.WithString("account", mcp.Required(), mcp.Description("0x-prefixed account address")),
		),
		s.handleGetStakedTokens,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_stakers",
			mcp.WithDescription("List every account that has ever staked"),
		),
		s.handleListStakers,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_tiers",
			mcp.WithDescription("List roll tiers with price and per-level weights"),
		),
		s.handleListTiers,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_rarity_levels",
			mcp.WithDescription("List rarity levels with supply and minted counts"),
		),
		s.handleListRarityLevels,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_settings",
			mcp.WithDescription("Get modes, rates, bonuses and oracle settings"),
		),
		s.handleGetSettings,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_mint_request",
			mcp.WithDescription("Get a mint request by oracle sequence number"),
			mcp.WithNumber("sequence_number", mcp.Required(), mcp.Description("Oracle sequence number")),
		),
		s.handleGetMintRequest,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_mint_requests",
			mcp.WithDescription("List mint requests of an account in creation order"),
			mcp.WithString("account", mcp.Required(), mcp.Description("0x-prefixed account address")),
		),
		s.handleListMintRequests,
	)

	if s.journal != nil {
		s.mcpServer.AddTool(
			mcp.NewTool(
				"list_events",
				mcp.WithDescription("List journaled events from a sequence"),
				mcp.WithNumber("from_seq", mcp.Description("Return events with a greater sequence, default 0")),
				mcp.WithString("account", mcp.Description("Optional account filter")),
				mcp.WithString("type", mcp.Description("Optional event type filter")),
				mcp.WithNumber("limit", mcp.Description("Page size, default 50, max 500")),
			),
			s.handleListEvents,
		)
	}
}

func (s *Server) handleGetRewards(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, errRes := accountArg(request)
	if errRes != nil {
		return errRes, nil
	}
	return toolResult(s.node.RewardsOf(account)), nil
}

func (s *Server) handleGetStakedTokens(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, errRes := accountArg(request)
	if errRes != nil {
		return errRes, nil
	}
	return toolResult(map[string]any{"account": account, "items": s.node.StakedTokens(account)}), nil
}

func (s *Server) handleListStakers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{"items": s.node.Engine.AllStakers()}), nil
}

func (s *Server) handleListTiers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{"items": s.node.Engine.Tiers()}), nil
}

func (s *Server) handleListRarityLevels(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{
		"items":        s.node.Engine.RarityLevels(),
		"minted_count": s.node.Engine.MintedCount(),
	}), nil
}

func (s *Server) handleGetSettings(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.node.Engine.Settings()), nil
}

func (s *Server) handleGetMintRequest(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seq, errRes := sequenceArg(request)
	if errRes != nil {
		return errRes, nil
	}
	req, err := s.node.Engine.MintRequest(seq)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(node.NewRequestView(req)), nil
}

func (s *Server) handleListMintRequests(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, errRes := accountArg(request)
	if errRes != nil {
		return errRes, nil
	}
	items := node.RequestViews(s.node.Engine.MintRequestsOf(account))
	return toolResult(map[string]any{"account": account, "items": items}), nil
}

func (s *Server) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := store.EventFilter{
		FromSeq: int64(max(request.GetInt("from_seq", 0), 0)),
		Type:    request.GetString("type", ""),
		Limit:   clampLimit(request.GetInt("limit", defaultPageLimit)),
	}
	if raw := request.GetString("account", ""); raw != "" {
		account, err := forge.ParseAddress(raw)
		if err != nil {
			return toolError("invalid_address", err.Error()), nil
		}
		f.Account = account.String()
	}
	events, err := s.journal.ListEvents(ctx, f)
	if err != nil {
		return toolError("internal_error", err.Error()), nil
	}
	return toolResult(map[string]any{"items": events}), nil
}
