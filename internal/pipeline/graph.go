package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
)

// GraphStage reads the normalized intermediate tables, assembles the final
// node and edge tables, and writes graph_nodes.csv / graph_edges.csv.
type GraphStage struct {
	processDir string
	logger     *slog.Logger
}

// NewGraphStage creates a GraphStage over the processed-table directory.
func NewGraphStage(processDir string, logger *slog.Logger) *GraphStage {
	return &GraphStage{processDir: processDir, logger: logger}
}

// Run assembles and writes the graph tables.
func (s *GraphStage) Run() error {
	events, err := csvio.ReadTable(filepath.Join(s.processDir, "events.csv"))
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	stateNodes, err := csvio.ReadTable(filepath.Join(s.processDir, "state_nodes.csv"))
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	segments, err := csvio.ReadTable(filepath.Join(s.processDir, "asset_segments.csv"))
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	nodes, edges := NewAssembler().Assemble(stateNodes, events, segments)

	if err := csvio.WriteTable(filepath.Join(s.processDir, "graph_nodes.csv"), nodes, domain.NodeColumns); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	if err := csvio.WriteTable(filepath.Join(s.processDir, "graph_edges.csv"), edges, domain.EdgeColumns); err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	s.logger.Info("assembled lineage graph",
		slog.Int("nodes", len(nodes)),
		slog.Int("edges", len(edges)),
	)
	return nil
}
