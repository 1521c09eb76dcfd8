package domain

// NodeColumns is the graph_nodes.csv header, in order. Boundary nodes leave
// the event-only columns empty.
var NodeColumns = []string{
	"node_id",
	"node_type",
	"label",
	"event_type",
	"event_date",
	"description",
	"source_name",
	"source_url",
}

// EdgeColumns is the graph_edges.csv header, in order: the edge identity and
// endpoints, the segment window, the sticky attribute columns, and the
// JSON-encoded prior transaction history.
var EdgeColumns = []string{
	"edge_id",
	"source_node_id",
	"target_node_id",
	"asset_id",
	"asset_key",
	"asset_type",
	"subtype",
	"start_date",
	"end_date",
	"is_active_at_end",
	"player_name",
	"contract_expiry_year",
	"average_annual_salary",
	"acquisition_method",
	"original_team",
	"pick_year",
	"pick_number",
	"protections_raw",
	"protections_structured",
	"swap_conditions_raw",
	"swap_conditions_structured",
	"prior_transactions",
}
