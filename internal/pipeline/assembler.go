package pipeline

import (
	"sort"

	"github.com/courtdata/assetlineage/internal/domain"
)

// Assembler merges state-boundary nodes and event nodes into one uniform node
// table and carries the segment list through as the edge table. The sort
// orders are part of the output contract: they keep reruns diffable.
type Assembler struct{}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the final node and edge tables from the normalized
// intermediate tables. Boundary nodes leave the event-only fields empty;
// event nodes fall back to the event type when no label was curated. Nodes
// sort by (event_date, node_id), edges by (asset_id, start_date, edge_id).
func (a *Assembler) Assemble(stateNodes, events, segments []map[string]string) (nodes, edges []map[string]string) {
	nodes = make([]map[string]string, 0, len(stateNodes)+len(events))
	for _, row := range stateNodes {
		nodes = append(nodes, map[string]string{
			"node_id":     row["node_id"],
			"node_type":   row["node_type"],
			"label":       row["label"],
			"event_type":  "",
			"event_date":  row["event_date"],
			"description": "",
			"source_name": "",
			"source_url":  "",
		})
	}
	for _, row := range events {
		label := row["event_label"]
		if label == "" {
			label = row["event_type"]
		}
		nodes = append(nodes, map[string]string{
			"node_id":     row["event_id"],
			"node_type":   domain.EventNodeType,
			"label":       label,
			"event_type":  row["event_type"],
			"event_date":  row["event_date"],
			"description": row["description"],
			"source_name": row["source_name"],
			"source_url":  row["source_url"],
		})
	}

	edges = make([]map[string]string, 0, len(segments))
	for _, row := range segments {
		edge := make(map[string]string, len(domain.EdgeColumns))
		for _, name := range domain.EdgeColumns {
			edge[name] = row[name]
		}
		edges = append(edges, edge)
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i]["event_date"] != nodes[j]["event_date"] {
			return nodes[i]["event_date"] < nodes[j]["event_date"]
		}
		return nodes[i]["node_id"] < nodes[j]["node_id"]
	})
	sort.Slice(edges, func(i, j int) bool {
		if edges[i]["asset_id"] != edges[j]["asset_id"] {
			return edges[i]["asset_id"] < edges[j]["asset_id"]
		}
		if edges[i]["start_date"] != edges[j]["start_date"] {
			return edges[i]["start_date"] < edges[j]["start_date"]
		}
		return edges[i]["edge_id"] < edges[j]["edge_id"]
	})
	return nodes, edges
}
