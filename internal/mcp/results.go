package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// arguments reads the string arguments named in keys, in order. A key
// listed in required must be present and non-blank.
func arguments(request mcp.CallToolRequest, keys []string, required ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = strings.TrimSpace(request.GetString(key, ""))
	}
	for _, key := range required {
		for i, k := range keys {
			if k == key && out[i] == "" {
				return nil, fmt.Errorf("argument %q is required", key)
			}
		}
	}
	return out, nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// failed reports err to the client as a tool result. The session stays up.
func failed(err error, hint string) (*mcp.CallToolResult, error) {
	msg := err.Error()
	if hint != "" {
		msg += ". " + hint
	}
	return mcp.NewToolResultError(msg), nil
}
