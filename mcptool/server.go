package mcptool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerName is the implementation name reported to MCP clients.
const ServerName = "sieve"

// NewServer creates an MCP server with the curate_documents tool registered.
func NewServer(tool *Tool, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	mcp.AddTool(server, MetadataCurateDocuments, tool.CurateDocuments)
	return server
}

// ServeStdio runs server over stdin/stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
