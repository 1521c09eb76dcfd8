// Package ids derives stable identifiers from semantically-stable natural
// keys. Reruns over unchanged inputs produce identical node and edge IDs,
// which keeps re-ingestion idempotent and output diffs reviewable.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

const (
	hashLen = 10
	slugLen = 48
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// slug lower-cases value, collapses non-alphanumeric runs to single
// underscores, and trims leading/trailing underscores.
func slug(value string) string {
	normalized := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "_")
	normalized = strings.Trim(normalized, "_")
	if normalized == "" {
		return "na"
	}
	return normalized
}

// DeterministicID joins parts with "|", hashes the material with SHA-256, and
// combines a truncated human-readable slug of the material with a fixed-length
// hex prefix of the digest: {prefix}_{slug}_{hash}.
func DeterministicID(prefix string, parts ...string) string {
	trimmed := make([]string, len(parts))
	for i, part := range parts {
		trimmed[i] = strings.TrimSpace(part)
	}
	material := strings.Join(trimmed, "|")

	digest := sha256.Sum256([]byte(material))
	hashPart := hex.EncodeToString(digest[:])[:hashLen]

	slugPart := slug(material)
	if len(slugPart) > slugLen {
		slugPart = slugPart[:slugLen]
	}
	return prefix + "_" + slugPart + "_" + hashPart
}

// EventID builds the deterministic ID for a transaction event.
func EventID(teamCode, eventKey, eventDate, eventType string) string {
	return DeterministicID("evt", teamCode, eventKey, eventDate, eventType)
}

// AssetID builds the deterministic ID for a tracked asset.
func AssetID(teamCode, assetKey string) string {
	return DeterministicID("ast", teamCode, assetKey)
}

// EdgeID builds the deterministic ID for an asset segment edge.
func EdgeID(assetID, sourceNodeID, targetNodeID string, segmentIndex int) string {
	return DeterministicID("edg", assetID, sourceNodeID, targetNodeID, strconv.Itoa(segmentIndex))
}

// StateNodeID builds a boundary node ID from its prefix, team code, and a
// compacted ISO date (dashes removed).
func StateNodeID(prefix, teamCode, date string) string {
	compact := strings.ReplaceAll(date, "-", "")
	return prefix + "_" + strings.ToLower(teamCode) + "_" + compact
}

// Boundary node ID prefixes.
const (
	StartStatePrefix = "state_start"
	EndStatePrefix   = "state_end"
)
