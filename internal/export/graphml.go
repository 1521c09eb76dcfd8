package export

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/courtdata/assetlineage/internal/domain"
)

const graphmlNamespace = "http://graphml.graphdrawing.org/xmlns"

// Node attribute keys declared in the GraphML header: every node column
// except node_id, which becomes the node element's id attribute.
var graphmlNodeAttrs = domain.NodeColumns[1:]

// Edge attribute keys: every edge column except edge_id, source_node_id, and
// target_node_id, which map onto the edge element's own attributes.
var graphmlEdgeAttrs = domain.EdgeColumns[3:]

type graphmlKey struct {
	XMLName  xml.Name `xml:"key"`
	ID       string   `xml:"id,attr"`
	For      string   `xml:"for,attr"`
	AttrName string   `xml:"attr.name,attr"`
	AttrType string   `xml:"attr.type,attr"`
}

type graphmlData struct {
	XMLName xml.Name `xml:"data"`
	Key     string   `xml:"key,attr"`
	Value   string   `xml:",chardata"`
}

type graphmlNode struct {
	XMLName xml.Name      `xml:"node"`
	ID      string        `xml:"id,attr"`
	Data    []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	XMLName xml.Name      `xml:"edge"`
	ID      string        `xml:"id,attr"`
	Source  string        `xml:"source,attr"`
	Target  string        `xml:"target,attr"`
	Data    []graphmlData `xml:"data"`
}

type graphmlGraph struct {
	XMLName     xml.Name      `xml:"graph"`
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

// WriteGraphML serializes the node and edge tables as one GraphML document.
// Attribute keys are declared up front, mirroring the CSV column lists;
// prior_transactions travels as its JSON-encoded string value.
func WriteGraphML(path, graphID string, nodes, edges []map[string]string) error {
	doc := graphmlDoc{
		Xmlns: graphmlNamespace,
		Graph: graphmlGraph{
			ID:          graphID,
			EdgeDefault: "directed",
		},
	}

	for _, attr := range graphmlNodeAttrs {
		doc.Keys = append(doc.Keys, graphmlKey{
			ID: "n_" + attr, For: "node", AttrName: attr, AttrType: "string",
		})
	}
	for _, attr := range graphmlEdgeAttrs {
		doc.Keys = append(doc.Keys, graphmlKey{
			ID: "e_" + attr, For: "edge", AttrName: attr, AttrType: "string",
		})
	}

	for _, row := range nodes {
		node := graphmlNode{ID: row["node_id"]}
		for _, attr := range graphmlNodeAttrs {
			node.Data = append(node.Data, graphmlData{Key: "n_" + attr, Value: row[attr]})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, node)
	}
	for _, row := range edges {
		edge := graphmlEdge{
			ID:     row["edge_id"],
			Source: row["source_node_id"],
			Target: row["target_node_id"],
		}
		for _, attr := range graphmlEdgeAttrs {
			edge.Data = append(edge.Data, graphmlData{Key: "e_" + attr, Value: row[attr]})
		}
		doc.Graph.Edges = append(doc.Graph.Edges, edge)
	}

	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("graphml: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("graphml: mkdir for %s: %w", path, err)
	}
	out := append([]byte(xml.Header), payload...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("graphml: write %s: %w", path, err)
	}
	return nil
}
