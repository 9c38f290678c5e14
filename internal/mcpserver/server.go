// Package mcpserver exposes the dna command surface as MCP tools over stdio.
//
// Every tool is a thin adapter over an engine operation: it parses the
// arguments, runs the operation under the server.tool_timeout budget and
// returns the JSON result as text. Failures are returned as tool errors so
// the calling agent sees the message rather than a transport error.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/fraim-ai/fraim-toolkit/internal/engine"
)

// New creates the MCP server with every dna tool registered.
func New(e *engine.Engine, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"dna",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range Tools(e) {
		s.AddTool(t.Definition, t.Handle)
	}
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(e *engine.Engine, version string) error {
	return server.ServeStdio(New(e, version))
}

const instructions = `dna manages a graph of decision documents (DEC-NNN) at four levels:
1 Identity, 2 Direction, 3 Strategy, 4 Tactics. A decision may depend only on
decisions at strictly lower levels, and may be committed only when every
dependency is committed. Use dna_check before proposing new decisions,
dna_frontier to find what can be committed next, and dna_cascade to see what a
change affects. Mutating tools accept dry_run to preview the validation delta.`
