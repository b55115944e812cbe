// Package mcp exposes vault operations as MCP tools over stdio, so agent
// runtimes can drive the assistant directly.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/vaultpilot/internal/action"
	"github.com/ziadkadry99/vaultpilot/internal/archive"
	"github.com/ziadkadry99/vaultpilot/internal/recovery"
)

// Server wraps the MCP stdio server with vault collaborators.
type Server struct {
	store   *action.Store
	checker *recovery.Checker
	index   *archive.Index

	mcp *server.MCPServer
}

// New creates the MCP server and registers its tools. index may be nil when
// no embedding backend is configured; search_archive then reports that.
func New(store *action.Store, checker *recovery.Checker, index *archive.Index, version string) *Server {
	s := &Server{
		store:   store,
		checker: checker,
		index:   index,
	}
	s.mcp = server.NewMCPServer("vaultpilot", version, server.WithToolCapabilities(false))
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
