package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type NodeKind string

const (
	NodeCase       NodeKind = "case"
	NodeStatute    NodeKind = "statute"
	NodeParty      NodeKind = "party"
	NodeAgreement  NodeKind = "agreement"
	NodeClauseType NodeKind = "clause_type"
)

type RelationType string

const (
	RelCites        RelationType = "CITES"
	RelSupersedes   RelationType = "SUPERSEDES"
	RelSupersededBy RelationType = "SUPERSEDED_BY"
	RelPartyTo      RelationType = "PARTY_TO"
	RelGovernedBy   RelationType = "GOVERNED_BY"
)

// GraphNode is a legal entity in the knowledge graph. Nodes are immutable
// once created except for relationship additions, which are append-only:
// supersession is a new edge, never a retraction.
type GraphNode struct {
	ID              string               `json:"id"`
	Kind            NodeKind             `json:"kind"`
	Name            string               `json:"name"`
	Jurisdiction    string               `json:"jurisdiction,omitempty"`
	Confidentiality ConfidentialityLevel `json:"confidentiality"`
	ClientID        string               `json:"client_id,omitempty"`
}

// ContentAddress derives the stable identity for statutes and cases so the
// same authority resolves to the same node across re-ingestion.
func ContentAddress(kind NodeKind, name, jurisdiction string) string {
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte{0})
	h.Write([]byte(NormalizeName(name)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(jurisdiction))))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// NormalizeName folds case and collapses whitespace and punctuation for
// fuzzy entity matching.
func NormalizeName(name string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Mention is an entity reference awaiting resolution against the graph.
type Mention struct {
	Name         string   `json:"name"`
	Jurisdiction string   `json:"jurisdiction,omitempty"`
	Kind         NodeKind `json:"kind"`
}

// ResolveCandidate is one ranked match for a mention. The store never
// disambiguates silently; callers decide the policy.
type ResolveCandidate struct {
	NodeID string  `json:"node_id"`
	Score  float64 `json:"score"`
}

// AccessScope bounds what a caller may see in the knowledge graph. Nodes
// above the ceiling, and nodes scoped to a different client, are invisible.
type AccessScope struct {
	Ceiling  ConfidentialityLevel `json:"ceiling"`
	ClientID string               `json:"client_id,omitempty"`
}

// Allows reports whether the scope may observe the given node.
func (s AccessScope) Allows(node GraphNode) bool {
	if !s.Ceiling.Covers(node.Confidentiality) {
		return false
	}
	if node.ClientID != "" && node.ClientID != s.ClientID {
		return false
	}
	return true
}
