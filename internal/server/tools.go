package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSourceProperties are shared by every tool that reads an image.
func imageSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"image_data": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image, optionally as a data URL (data:image/png;base64,...). Used when path is empty.",
		},
		"reload": map[string]interface{}{
			"type":        "boolean",
			"description": "Read path from disk again instead of using the cached copy",
		},
	}
}

func withProperties(extra map[string]interface{}) map[string]interface{} {
	props := imageSourceProperties()
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Segmentation
		{
			Name: "symbols_segment",
			Description: "Segment a handwritten or typeset math image into symbols, classify each one and return them in left-to-right order " +
				"as {\"symbol_1\": ..., \"symbol_2\": ...}, or {\"message\": \"No symbols detected\"}.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"evaluate": map[string]interface{}{
						"type":        "boolean",
						"description": "Also evaluate the symbols as an arithmetic expression. Defaults to the server configuration.",
					},
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Drop predictions the classifier scores below this (0.0-1.0). Defaults to the server configuration.",
						"minimum":     0,
						"maximum":     1,
					},
					"details": map[string]interface{}{
						"type":        "boolean",
						"description": "Wrap the result with per-symbol confidence and bounds",
						"default":     false,
					},
				}),
			},
		},
		{
			Name:        "symbols_regions",
			Description: "Report region geometry after each segmentation stage (raw, filtered, ordered) and the clamped crop rectangle of every symbol. Use this to tune thresholds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Return a base64 PNG with numbered boxes around each symbol",
						"default":     false,
					},
					"box_color": map[string]interface{}{
						"type":        "string",
						"description": "Box color in hex format (#RRGGBB or #RRGGBBAA). Default: #FF0000",
						"default":     "#FF0000",
					},
				}),
			},
		},
		{
			Name:        "symbols_crops",
			Description: "Return every symbol crop, in reading order, as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
			},
		},

		// Expressions
		{
			Name:        "symbols_evaluate",
			Description: "Evaluate an expression written with the symbol vocabulary, e.g. \"2×(3+4)\" or \"√16÷2\".",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"expression": map[string]interface{}{
						"type":        "string",
						"description": "Expression to evaluate",
					},
				},
				"required": []string{"expression"},
			},
		},
		{
			Name:        "symbols_vocabulary",
			Description: "List the labels a classifier can return.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Basic Image Information
		{
			Name:        "image_info",
			Description: "Get the width, height, channel count and color depth of an image, plus the fraction of pixels binarized as ink.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
