package memgraph

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/lexops/legalintel/internal/core/domain"
)

func publicScope() domain.AccessScope {
	return domain.AccessScope{Ceiling: domain.ConfidentialityPublic}
}

func mustUpsert(t *testing.T, s *Store, node domain.GraphNode) {
	t.Helper()
	if _, err := s.UpsertNode(context.Background(), node); err != nil {
		t.Fatalf("UpsertNode(%s) error = %v", node.ID, err)
	}
}

func TestUpsertNodeIsImmutableAfterCreate(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{ID: "n1", Kind: domain.NodeStatute, Name: "GDPR Art. 28"})
	mustUpsert(t, s, domain.GraphNode{ID: "n1", Kind: domain.NodeStatute, Name: "renamed"})

	scope := publicScope()
	candidates, err := s.Resolve(context.Background(), scope, domain.Mention{Name: "GDPR Art. 28", Kind: domain.NodeStatute})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].NodeID != "n1" {
		t.Fatalf("original node data lost: %+v", candidates)
	}
}

func TestAddRelationshipIdempotent(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{ID: "case-1", Kind: domain.NodeCase, Name: "old ruling"})
	mustUpsert(t, s, domain.GraphNode{ID: "case-2", Kind: domain.NodeCase, Name: "new ruling"})

	for i := 0; i < 3; i++ {
		if err := s.AddRelationship(context.Background(), "case-1", domain.RelSupersededBy, "case-2"); err != nil {
			t.Fatalf("AddRelationship() error = %v", err)
		}
	}

	neighbors, err := s.Neighbors(context.Background(), publicScope(), "case-1", domain.RelSupersededBy)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) != 1 || neighbors[0] != "case-2" {
		t.Fatalf("expected exactly one edge after repeats, got %v", neighbors)
	}
}

func TestAddRelationshipRequiresBothNodes(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{ID: "a", Kind: domain.NodeParty, Name: "acme"})

	if err := s.AddRelationship(context.Background(), "a", domain.RelCites, "ghost"); err == nil {
		t.Fatalf("expected error for unknown destination")
	}
	if err := s.AddRelationship(context.Background(), "ghost", domain.RelCites, "a"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestScopeHidesPrivilegedNodes(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{ID: "statute-1", Kind: domain.NodeStatute, Name: "ccpa", Confidentiality: domain.ConfidentialityPublic})
	mustUpsert(t, s, domain.GraphNode{
		ID:              "privileged-agreement",
		Kind:            domain.NodeAgreement,
		Name:            "settlement terms",
		Confidentiality: domain.ConfidentialityPrivileged,
		ClientID:        "client-1",
	})
	if err := s.AddRelationship(context.Background(), "privileged-agreement", domain.RelCites, "statute-1"); err != nil {
		t.Fatalf("AddRelationship() error = %v", err)
	}

	// An internal-ceiling caller cannot see the privileged agreement at all.
	lowScope := domain.AccessScope{Ceiling: domain.ConfidentialityInternal, ClientID: "client-1"}
	neighbors, err := s.Neighbors(context.Background(), lowScope, "privileged-agreement", domain.RelCites)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("privileged node leaked to low scope: %v", neighbors)
	}

	// The owning client with a privileged ceiling sees through.
	highScope := domain.AccessScope{Ceiling: domain.ConfidentialityPrivileged, ClientID: "client-1"}
	neighbors, err = s.Neighbors(context.Background(), highScope, "privileged-agreement", domain.RelCites)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) != 1 {
		t.Fatalf("owner scope blocked: %v", neighbors)
	}
}

func TestScopeHidesOtherClientsNodes(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{
		ID:              "party-1",
		Kind:            domain.NodeParty,
		Name:            "acme corp",
		Confidentiality: domain.ConfidentialityInternal,
		ClientID:        "client-1",
	})

	otherClient := domain.AccessScope{Ceiling: domain.ConfidentialityPrivileged, ClientID: "client-2"}
	candidates, err := s.Resolve(context.Background(), otherClient, domain.Mention{Name: "acme corp", Kind: domain.NodeParty})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("client-scoped node visible to another client: %+v", candidates)
	}
}

func TestResolveRankingAndJurisdictionPenalty(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{ID: "exact", Kind: domain.NodeParty, Name: "Acme Corporation", Jurisdiction: "US-NY"})
	mustUpsert(t, s, domain.GraphNode{ID: "prefix", Kind: domain.NodeParty, Name: "Acme Corporation Holdings", Jurisdiction: "US-NY"})
	mustUpsert(t, s, domain.GraphNode{ID: "wrong-jurisdiction", Kind: domain.NodeParty, Name: "Acme Corporation", Jurisdiction: "US-CA"})

	scope := publicScope()
	candidates, err := s.Resolve(context.Background(), scope, domain.Mention{Name: "acme corporation", Kind: domain.NodeParty, Jurisdiction: "US-NY"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].NodeID != "exact" || candidates[0].Score != 1.0 {
		t.Fatalf("exact match must rank first: %+v", candidates)
	}
	for _, c := range candidates[1:] {
		if c.Score >= candidates[0].Score {
			t.Fatalf("ranking not descending: %+v", candidates)
		}
	}
}

func TestResolveKindMismatchExcluded(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{ID: "statute-1", Kind: domain.NodeStatute, Name: "acme act"})

	candidates, err := s.Resolve(context.Background(), publicScope(), domain.Mention{Name: "acme act", Kind: domain.NodeParty})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("kind mismatch must exclude: %+v", candidates)
	}
}

func TestConcurrentWritesSafe(t *testing.T) {
	s := New(true)
	mustUpsert(t, s, domain.GraphNode{ID: "hub", Kind: domain.NodeAgreement, Name: "hub"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("node-%d", i)
			if _, err := s.UpsertNode(context.Background(), domain.GraphNode{ID: id, Kind: domain.NodeParty, Name: id}); err != nil {
				t.Errorf("UpsertNode(%s) error = %v", id, err)
				return
			}
			if err := s.AddRelationship(context.Background(), id, domain.RelPartyTo, "hub"); err != nil {
				t.Errorf("AddRelationship(%s) error = %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("node-%d", i)
		neighbors, err := s.Neighbors(context.Background(), publicScope(), id, domain.RelPartyTo)
		if err != nil {
			t.Fatalf("Neighbors(%s) error = %v", id, err)
		}
		if len(neighbors) != 1 {
			t.Fatalf("edge lost for %s: %v", id, neighbors)
		}
	}
}
