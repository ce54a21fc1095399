// Package server implements the MCP (Model Context Protocol) server that exposes
// symbol segmentation as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Segmentation:
//   - symbols_segment: Segment, classify and optionally evaluate an image
//   - symbols_regions: Region geometry per stage, optional annotated preview
//   - symbols_crops: Base64 PNG of every symbol crop
//
// Expressions:
//   - symbols_evaluate: Evaluate an expression string
//   - symbols_vocabulary: List classifier labels
//
// Basic Image Information:
//   - image_info: Dimensions, channels and ink fraction
//
// Every image tool accepts either a file path or inline base64 data.
//
// # Image Caching
//
// Images loaded by path are cached for the lifetime of the server, so the
// same drawing can be segmented repeatedly without re-reading the file.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The same message the command line would print, e.g.
//     "Image path does not exist: /tmp/x.png"
//
// Diagnostics go to the zerolog logger handed to New, never to the
// response stream.
package server
