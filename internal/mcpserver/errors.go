package mcpserver

import (
	"errors"
	"fmt"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func mapDomainError(err error) *mcp.CallToolResult {
	if err == nil {
		return toolError("internal_error", "unknown error")
	}
	_, code := node.MapError(err)
	var be *forge.InsufficientBalanceError
	if errors.As(err, &be) {
		result := toolError(code, err.Error())
		result.StructuredContent = map[string]any{
			"error": map[string]any{
				"code":      code,
				"message":   err.Error(),
				"available": be.Available,
				"required":  be.Required,
			},
		}
		return result
	}
	return toolError(code, err.Error())
}
