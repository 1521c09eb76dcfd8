package domain

// AssetSegment is one closed interval [start_date, end_date) of control over
// an asset, anchored at source and target event or boundary node IDs. Segments
// still open at the window end carry an empty end date and IsActiveAtEnd.
type AssetSegment struct {
	EdgeID       string
	AssetID      string
	AssetKey     string
	SourceNodeID string
	TargetNodeID string
	StartDate    string
	EndDate      string
	ActiveAtEnd  bool
	Attrs        Attrs
	// PriorTransactions is the ordered "date|event_type|action" history
	// accumulated up to, but not including, the action that closed the
	// segment. Serialized as a JSON array of strings on output.
	PriorTransactions []string
}

// StateNodeType is the node_type value carried by boundary nodes.
const StateNodeType = "state_boundary"

// EventNodeType is the node_type value carried by event nodes.
const EventNodeType = "event"
