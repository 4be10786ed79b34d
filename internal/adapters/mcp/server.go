package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mkarpenko/songbrain/internal/core/ports"
)

// Server exposes the assistant tools over the Model Context Protocol so
// external agents can call them without going through the chat planner.
type Server struct {
	mcpServer  *server.MCPServer
	ingestor   ports.ResourceIngestor
	retriever  ports.KnowledgeRetriever
	translator ports.FilterTranslator
	searcher   ports.SongSearcher
	logger     *slog.Logger
}

func NewServer(
	ingestor ports.ResourceIngestor,
	retriever ports.KnowledgeRetriever,
	translator ports.FilterTranslator,
	searcher ports.SongSearcher,
	logger *slog.Logger,
) *Server {
	s := &Server{
		ingestor:   ingestor,
		retriever:  retriever,
		translator: translator,
		searcher:   searcher,
		logger:     logger,
	}

	mcpServer := server.NewMCPServer(
		"songbrain",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	mcpServer.AddTool(mcp.NewTool("add_resource",
		mcp.WithDescription("Store a fact or note in the personal knowledge base"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The text to remember"),
		),
	), s.handleAddResource)

	mcpServer.AddTool(mcp.NewTool("search_knowledge",
		mcp.WithDescription("Semantically search the personal knowledge base"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural language question to search for"),
		),
	), s.handleSearchKnowledge)

	mcpServer.AddTool(mcp.NewTool("search_songs",
		mcp.WithDescription("Find songs in the catalog from a natural language request"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What kind of songs to look for, e.g. easy Coldplay songs from the 2000s"),
		),
	), s.handleSearchSongs)

	s.mcpServer = mcpServer
	return s
}

// ServeStdio blocks serving MCP over stdin and stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleAddResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resource, err := s.ingestor.Ingest(ctx, content)
	if err != nil {
		s.logger.Error("mcp add_resource failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("stored resource %s", resource.ID)), nil
}

func (s *Server) handleSearchKnowledge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items, err := s.retriever.Retrieve(ctx, []string{question}, 0)
	if err != nil {
		s.logger.Error("mcp search_knowledge failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no matching knowledge found"), nil
	}
	return jsonToolResult(items)
}

func (s *Server) handleSearchSongs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	songQuery, err := s.translator.Translate(ctx, query)
	if err != nil {
		s.logger.Error("mcp search_songs translate failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	songs, err := s.searcher.Search(ctx, songQuery)
	if err != nil {
		s.logger.Error("mcp search_songs failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(songs) == 0 {
		return mcp.NewToolResultText("no songs matched"), nil
	}
	return jsonToolResult(songs)
}

func jsonToolResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
