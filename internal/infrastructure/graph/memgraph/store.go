package memgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lexops/legalintel/internal/core/domain"
)

type node struct {
	mu    sync.RWMutex
	data  domain.GraphNode
	edges map[domain.RelationType]map[string]struct{}
}

// Store is the in-memory knowledge graph used by tests and single-node
// deployments. Reads run concurrently; writes serialize per node. Edges
// are append-only: supersession adds a new edge, nothing is retracted.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*node

	privilegeCapable bool
}

func New(privilegeCapable bool) *Store {
	return &Store{
		nodes:            make(map[string]*node),
		privilegeCapable: privilegeCapable,
	}
}

func (s *Store) PrivilegeCapable() bool {
	return s.privilegeCapable
}

// UpsertNode creates the node if absent. Existing nodes are immutable
// apart from relationship additions, so a second upsert is a no-op.
func (s *Store) UpsertNode(_ context.Context, gn domain.GraphNode) (string, error) {
	if gn.ID == "" {
		return "", fmt.Errorf("memgraph: node id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[gn.ID]; !ok {
		s.nodes[gn.ID] = &node{
			data:  gn,
			edges: make(map[domain.RelationType]map[string]struct{}),
		}
	}
	return gn.ID, nil
}

// AddRelationship is idempotent: adding the same edge twice is a no-op.
func (s *Store) AddRelationship(_ context.Context, srcID string, rel domain.RelationType, dstID string) error {
	s.mu.RLock()
	src, srcOK := s.nodes[srcID]
	_, dstOK := s.nodes[dstID]
	s.mu.RUnlock()

	if !srcOK {
		return fmt.Errorf("memgraph: unknown source node %s", srcID)
	}
	if !dstOK {
		return fmt.Errorf("memgraph: unknown destination node %s", dstID)
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	set, ok := src.edges[rel]
	if !ok {
		set = make(map[string]struct{})
		src.edges[rel] = set
	}
	set[dstID] = struct{}{}
	return nil
}

// Neighbors returns the scope-visible neighbor IDs, sorted for
// reproducibility.
func (s *Store) Neighbors(_ context.Context, scope domain.AccessScope, id string, rel domain.RelationType) ([]string, error) {
	s.mu.RLock()
	n, ok := s.nodes[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	n.mu.RLock()
	if !scope.Allows(n.data) {
		n.mu.RUnlock()
		return nil, nil
	}
	ids := make([]string, 0, len(n.edges[rel]))
	for dst := range n.edges[rel] {
		ids = append(ids, dst)
	}
	n.mu.RUnlock()

	out := make([]string, 0, len(ids))
	for _, dst := range ids {
		s.mu.RLock()
		dn, ok := s.nodes[dst]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		dn.mu.RLock()
		visible := scope.Allows(dn.data)
		dn.mu.RUnlock()
		if visible {
			out = append(out, dst)
		}
	}
	sort.Strings(out)
	return out, nil
}

const resolveFloor = 0.5

// Resolve fuzzy-matches a mention by normalized name, type, and
// jurisdiction, returning ranked candidates. The store never picks a
// winner; disambiguation belongs to the caller.
func (s *Store) Resolve(_ context.Context, scope domain.AccessScope, mention domain.Mention) ([]domain.ResolveCandidate, error) {
	target := domain.NormalizeName(mention.Name)
	if target == "" {
		return nil, nil
	}

	s.mu.RLock()
	snapshot := make([]domain.GraphNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		n.mu.RLock()
		snapshot = append(snapshot, n.data)
		n.mu.RUnlock()
	}
	s.mu.RUnlock()

	var out []domain.ResolveCandidate
	for _, gn := range snapshot {
		if gn.Kind != mention.Kind || !scope.Allows(gn) {
			continue
		}
		score := nameScore(target, domain.NormalizeName(gn.Name))
		if score == 0 {
			continue
		}
		if mention.Jurisdiction != "" && gn.Jurisdiction != "" &&
			!strings.EqualFold(mention.Jurisdiction, gn.Jurisdiction) {
			score *= 0.8
		}
		if score < resolveFloor {
			continue
		}
		out = append(out, domain.ResolveCandidate{NodeID: gn.ID, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out, nil
}

func nameScore(target, name string) float64 {
	switch {
	case name == target:
		return 1.0
	case strings.HasPrefix(name, target) || strings.HasPrefix(target, name):
		return 0.8
	case strings.Contains(name, target) || strings.Contains(target, name):
		return 0.6
	default:
		return 0
	}
}
