package mcpserver

import (
	"dragon-forge/internal/forge"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	return min(limit, maxPageLimit)
}

func accountArg(request mcp.CallToolRequest) (forge.Address, *mcp.CallToolResult) {
	raw := request.GetString("account", "")
	if raw == "" {
		return "", toolError("invalid_request", "account is required")
	}
	addr, err := forge.ParseAddress(raw)
	if err != nil {
		return "", toolError("invalid_address", err.Error())
	}
	return addr, nil
}

func sequenceArg(request mcp.CallToolRequest) (uint64, *mcp.CallToolResult) {
	seq := request.GetInt("sequence_number", 0)
	if seq <= 0 {
		return 0, toolError("invalid_request", "sequence_number must be positive")
	}
	return uint64(seq), nil
}
