package server

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// Info is the server identity reported during initialization.
type Info struct {
	Name         string
	Version      string
	Instructions string
}

// ToolInfo describes a registered tool as listed to clients.
type ToolInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	InputSchema any              `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// Server is a registry of tools. Registration happens at startup; lookups
// are safe for concurrent use.
type Server struct {
	mu    sync.RWMutex
	info  Info
	tools map[string]*Tool
	order []string
}

// New creates a server with no tools.
func New(info Info) *Server {
	return &Server{
		info:  info,
		tools: make(map[string]*Tool),
	}
}

// Info returns the server info.
func (s *Server) Info() Info {
	return s.info
}

// Tool starts building a tool named name. The tool is registered when
// Handler is called.
func (s *Server) Tool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool:   &Tool{name: name},
		server: s,
	}
}

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ToolInfo, 0, len(s.order))
	for _, name := range s.order {
		t := s.tools[name]
		result = append(result, ToolInfo{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.inputSchema,
			Annotations: t.annotations,
		})
	}
	return result
}

// GetTool looks up a tool by name.
func (s *Server) GetTool(name string) (*Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

func (s *Server) registerTool(t *Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.tools[t.name]; dup {
		return fmt.Errorf("server: tool %q already registered", t.name)
	}
	s.tools[t.name] = t
	s.order = append(s.order, t.name)
	return nil
}

// initializeResult is the reply to initialize.
func (s *Server) initializeResult() map[string]any {
	result := map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"serverInfo": map[string]any{
			"name":    s.info.Name,
			"version": s.info.Version,
		},
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
	}
	if s.info.Instructions != "" {
		result["instructions"] = s.info.Instructions
	}
	return result
}
