// Package export serializes the assembled lineage graph: CSV tables, a
// GraphML document with a fixed attribute schema, and a standalone HTML view.
package export

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
)

// Exporter writes the export artifacts for one assembled graph.
type Exporter struct {
	processDir string
	exportsDir string
	graphID    string
	logger     *slog.Logger
}

// NewExporter creates an Exporter reading the graph tables from processDir
// and writing artifacts to exportsDir. graphID names the GraphML graph
// element.
func NewExporter(processDir, exportsDir, graphID string, logger *slog.Logger) *Exporter {
	return &Exporter{
		processDir: processDir,
		exportsDir: exportsDir,
		graphID:    graphID,
		logger:     logger,
	}
}

// Run reads graph_nodes.csv / graph_edges.csv and writes nodes.csv,
// edges.csv, and the GraphML document. The three artifacts are independent
// files, so they are written concurrently; the graph data itself is only
// read.
func (e *Exporter) Run() error {
	nodes, err := csvio.ReadTable(filepath.Join(e.processDir, "graph_nodes.csv"))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	edges, err := csvio.ReadTable(filepath.Join(e.processDir, "graph_edges.csv"))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		return csvio.WriteTable(filepath.Join(e.exportsDir, "nodes.csv"), nodes, domain.NodeColumns)
	})
	g.Go(func() error {
		return csvio.WriteTable(filepath.Join(e.exportsDir, "edges.csv"), edges, domain.EdgeColumns)
	})
	g.Go(func() error {
		return WriteGraphML(filepath.Join(e.exportsDir, e.graphID+".graphml"), e.graphID, nodes, edges)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	e.logger.Info("wrote export artifacts",
		slog.String("dir", e.exportsDir),
		slog.Int("nodes", len(nodes)),
		slog.Int("edges", len(edges)),
	)
	return nil
}

// ArtifactPaths lists the artifacts an export run leaves under exportsDir,
// for downstream publication. It needs no Exporter; publish consults it
// without re-reading the graph tables.
func ArtifactPaths(exportsDir, graphID string) []string {
	return []string{
		filepath.Join(exportsDir, "nodes.csv"),
		filepath.Join(exportsDir, "edges.csv"),
		filepath.Join(exportsDir, graphID+".graphml"),
	}
}
