package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/courtdata/assetlineage/internal/csvio"
)

// Visualizer renders the exported graph tables as a standalone HTML page
// backed by vis-network, with date-window and event-type filters. The whole
// graph payload is embedded as JSON so the file works without a server.
type Visualizer struct {
	nodesPath  string
	edgesPath  string
	outputPath string
	title      string
}

// NewVisualizer creates a Visualizer over the exported node/edge CSVs.
func NewVisualizer(nodesPath, edgesPath, outputPath, title string) *Visualizer {
	return &Visualizer{
		nodesPath:  nodesPath,
		edgesPath:  edgesPath,
		outputPath: outputPath,
		title:      title,
	}
}

type vizPayload struct {
	Nodes        []map[string]string `json:"nodes"`
	Edges        []map[string]string `json:"edges"`
	DefaultStart string              `json:"defaultStart"`
	DefaultEnd   string              `json:"defaultEnd"`
	EventTypes   []string            `json:"eventTypes"`
}

// Run reads the export tables and writes the HTML view.
func (v *Visualizer) Run() error {
	nodes, err := csvio.ReadTable(v.nodesPath)
	if err != nil {
		return fmt.Errorf("visualize: %w", err)
	}
	edges, err := csvio.ReadTable(v.edgesPath)
	if err != nil {
		return fmt.Errorf("visualize: %w", err)
	}

	start, end := eventDateBounds(nodes)
	payload := vizPayload{
		Nodes:        nodes,
		Edges:        edges,
		DefaultStart: start,
		DefaultEnd:   end,
		EventTypes:   sortedEventTypes(nodes),
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("visualize: marshal payload: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(v.outputPath), 0o755); err != nil {
		return fmt.Errorf("visualize: mkdir for %s: %w", v.outputPath, err)
	}
	f, err := os.Create(v.outputPath)
	if err != nil {
		return fmt.Errorf("visualize: create %s: %w", v.outputPath, err)
	}
	defer f.Close()

	data := struct {
		Title   string
		Payload template.JS
	}{
		Title:   v.title,
		Payload: template.JS(payloadJSON),
	}
	if err := vizTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("visualize: render %s: %w", v.outputPath, err)
	}
	return f.Close()
}

// sortedEventTypes collects the distinct non-empty event types present in the
// node table, sorted for stable option order.
func sortedEventTypes(nodes []map[string]string) []string {
	seen := make(map[string]bool)
	for _, node := range nodes {
		if t := node["event_type"]; t != "" {
			seen[t] = true
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// eventDateBounds returns the earliest and latest event-node dates, or empty
// strings when no event nodes exist.
func eventDateBounds(nodes []map[string]string) (string, string) {
	var dates []string
	for _, node := range nodes {
		if node["node_type"] == "event" && node["event_date"] != "" {
			dates = append(dates, node["event_date"])
		}
	}
	if len(dates) == 0 {
		return "", ""
	}
	sort.Strings(dates)
	return dates[0], dates[len(dates)-1]
}

var vizTemplate = template.Must(template.New("graph_view").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  <style>
    :root { --bg: #f4efe8; --panel: #fffaf2; --ink: #1d232b; --muted: #5f6670; --line: #d5c7ad; --accent: #0b5563; }
    * { box-sizing: border-box; }
    body { margin: 0; font-family: "Segoe UI", sans-serif; color: var(--ink); background: var(--bg); min-height: 100vh; }
    .layout { display: grid; grid-template-columns: 320px minmax(0, 1fr); gap: 14px; padding: 14px; height: 100vh; }
    .panel { border: 1px solid var(--line); border-radius: 10px; background: var(--panel); padding: 12px; overflow: auto; }
    .panel h1 { margin: 0 0 8px; font-size: 20px; }
    .small { color: var(--muted); font-size: 12px; margin: 0 0 10px; }
    .control { margin-bottom: 10px; }
    label { display: block; font-size: 12px; color: var(--muted); margin-bottom: 4px; }
    input[type="date"], select, button { width: 100%; border-radius: 8px; border: 1px solid var(--line); background: white; padding: 8px; font-size: 13px; }
    select { min-height: 96px; }
    button { cursor: pointer; font-weight: 600; background: var(--accent); color: white; border: none; margin-top: 10px; }
    #graph { height: 100%; min-height: 400px; }
  </style>
</head>
<body>
  <div class="layout">
    <div class="panel">
      <h1>{{.Title}}</h1>
      <p class="small">Nodes are transaction events and window boundaries; edges are continuous periods of asset control.</p>
      <div class="control">
        <label for="start">Window start</label>
        <input type="date" id="start" />
      </div>
      <div class="control">
        <label for="end">Window end</label>
        <input type="date" id="end" />
      </div>
      <div class="control">
        <label for="types">Event types</label>
        <select id="types" multiple></select>
      </div>
      <button id="apply">Apply filters</button>
      <p class="small" id="summary"></p>
    </div>
    <div class="panel"><div id="graph"></div></div>
  </div>
  <script>
    const payload = {{.Payload}};

    const startInput = document.getElementById("start");
    const endInput = document.getElementById("end");
    const typeSelect = document.getElementById("types");
    startInput.value = payload.defaultStart;
    endInput.value = payload.defaultEnd;
    for (const t of payload.eventTypes) {
      const opt = document.createElement("option");
      opt.value = t;
      opt.textContent = t;
      opt.selected = true;
      typeSelect.appendChild(opt);
    }

    function visibleNodes() {
      const start = startInput.value;
      const end = endInput.value;
      const selected = new Set(Array.from(typeSelect.selectedOptions).map((o) => o.value));
      return payload.nodes.filter((n) => {
        if (n.node_type !== "event") return true;
        if (start && n.event_date < start) return false;
        if (end && n.event_date > end) return false;
        return selected.has(n.event_type);
      });
    }

    function render() {
      const nodes = visibleNodes();
      const ids = new Set(nodes.map((n) => n.node_id));
      const edges = payload.edges.filter((e) => ids.has(e.source_node_id) && ids.has(e.target_node_id));

      const visNodes = nodes.map((n) => ({
        id: n.node_id,
        label: n.label || n.node_id,
        shape: n.node_type === "event" ? "dot" : "box",
        color: n.node_type === "event" ? "#0b5563" : "#a1432a",
        title: [n.event_date, n.event_type, n.description].filter(Boolean).join(" · "),
      }));
      const visEdges = edges.map((e) => ({
        id: e.edge_id,
        from: e.source_node_id,
        to: e.target_node_id,
        arrows: "to",
        label: e.player_name || e.asset_key,
        font: { size: 10 },
        title: [e.start_date, e.end_date || "open", e.asset_type].filter(Boolean).join(" · "),
      }));

      document.getElementById("summary").textContent =
        visNodes.length + " nodes · " + visEdges.length + " edges shown";

      new vis.Network(
        document.getElementById("graph"),
        { nodes: new vis.DataSet(visNodes), edges: new vis.DataSet(visEdges) },
        {
          physics: { stabilization: { iterations: 120 } },
          edges: { smooth: { type: "dynamic" } },
          interaction: { hover: true },
        }
      );
    }

    document.getElementById("apply").addEventListener("click", render);
    render();
  </script>
</body>
</html>
`))
