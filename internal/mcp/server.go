package mcp

import (
	"context"
	"fmt"
	"sync"

	"tourstats/internal/config"
	"tourstats/internal/ingest"
	"tourstats/internal/stats"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server holds the state for the MCP server: at most one loaded dataset and
// its analysis session.
type Server struct {
	cfg     *config.AppConfig
	version string

	mu      sync.RWMutex
	dataset *ingest.Dataset
	session *stats.AnalysisSession
	sources []string
}

// NewServer creates a new MCP server.
func NewServer(cfg *config.AppConfig, version string) *Server {
	return &Server{cfg: cfg, version: version}
}

// Build registers every tool on a fresh SDK server.
func (s *Server) Build() (*sdk.Server, error) {
	server := sdk.NewServer(&sdk.Implementation{Name: "tourstats", Version: s.version}, nil)
	if err := s.registerTools(server); err != nil {
		return nil, err
	}
	return server, nil
}

// Start serves MCP over stdio until the client disconnects or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	server, err := s.Build()
	if err != nil {
		return err
	}
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// setDataset replaces the loaded dataset and resets the memo.
func (s *Server) setDataset(ds *ingest.Dataset, sources []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
	s.sources = sources
	s.session = stats.NewAnalysisSession(ds.Tours, ds.Records, s.cfg.PunctualityThreshold)
}

func (s *Server) activeSession() (*stats.AnalysisSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, fmt.Errorf("no dataset loaded: call load_exports first")
	}
	return s.session, nil
}
