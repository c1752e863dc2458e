package neo4jgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lexops/legalintel/internal/core/domain"
)

// Store is the Neo4j-backed knowledge graph. All entity nodes carry the
// :Entity label; relationship types mirror domain.RelationType. Scope
// filtering happens in Cypher so invisible nodes never leave the server.
type Store struct {
	driver   neo4j.DriverWithContext
	database string

	privilegeCapable bool
}

type Config struct {
	URI      string
	Username string
	Password string
	Database string

	// PrivilegeCapable declares the cluster approved for
	// ATTORNEY_CLIENT_PRIVILEGED content.
	PrivilegeCapable bool
}

func New(cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Store{
		driver:           driver,
		database:         cfg.Database,
		privilegeCapable: cfg.PrivilegeCapable,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) PrivilegeCapable() bool {
	return s.privilegeCapable
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// UpsertNode is create-if-absent: node attributes are immutable once
// written, so MERGE only sets them on create.
func (s *Store) UpsertNode(ctx context.Context, gn domain.GraphNode) (string, error) {
	if gn.ID == "" {
		return "", fmt.Errorf("neo4j graph: node id required")
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const query = `
MERGE (n:Entity {id: $id})
ON CREATE SET
	n.kind = $kind,
	n.name = $name,
	n.normalized = $normalized,
	n.jurisdiction = $jurisdiction,
	n.confidentiality = $confidentiality,
	n.confidentiality_rank = $rank,
	n.client_id = $client_id
`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":              gn.ID,
			"kind":            string(gn.Kind),
			"name":            gn.Name,
			"normalized":      domain.NormalizeName(gn.Name),
			"jurisdiction":    strings.ToLower(gn.Jurisdiction),
			"confidentiality": string(gn.Confidentiality),
			"rank":            gn.Confidentiality.Rank(),
			"client_id":       gn.ClientID,
		})
		return nil, err
	})
	if err != nil {
		return "", fmt.Errorf("upsert node: %w", err)
	}
	return gn.ID, nil
}

// AddRelationship MERGEs the edge, so re-adding it is a no-op.
func (s *Store) AddRelationship(ctx context.Context, srcID string, rel domain.RelationType, dstID string) error {
	if !knownRelation(rel) {
		return fmt.Errorf("neo4j graph: unknown relation type %q", rel)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Relationship types cannot be parameterized; rel is validated
		// against the closed domain enumeration above.
		query := fmt.Sprintf(`
MATCH (a:Entity {id: $src})
MATCH (b:Entity {id: $dst})
MERGE (a)-[:%s]->(b)
`, string(rel))
		_, err := tx.Run(ctx, query, map[string]any{"src": srcID, "dst": dstID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("add relationship: %w", err)
	}
	return nil
}

func (s *Store) Neighbors(ctx context.Context, scope domain.AccessScope, id string, rel domain.RelationType) ([]string, error) {
	if !knownRelation(rel) {
		return nil, fmt.Errorf("neo4j graph: unknown relation type %q", rel)
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
MATCH (a:Entity {id: $id})-[:%s]->(b:Entity)
WHERE a.confidentiality_rank <= $ceiling
  AND b.confidentiality_rank <= $ceiling
  AND (a.client_id = '' OR a.client_id = $client_id)
  AND (b.client_id = '' OR b.client_id = $client_id)
RETURN b.id AS id
ORDER BY id
`, string(rel))
		result, err := tx.Run(ctx, query, map[string]any{
			"id":        id,
			"ceiling":   scope.Ceiling.Rank(),
			"client_id": scope.ClientID,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("neighbors query: %w", err)
	}

	var out []string
	for _, record := range records.([]*neo4j.Record) {
		if v, ok := record.Get("id"); ok {
			if id, ok := v.(string); ok {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

const resolveFloor = 0.5

func (s *Store) Resolve(ctx context.Context, scope domain.AccessScope, mention domain.Mention) ([]domain.ResolveCandidate, error) {
	target := domain.NormalizeName(mention.Name)
	if target == "" {
		return nil, nil
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const query = `
MATCH (n:Entity {kind: $kind})
WHERE n.confidentiality_rank <= $ceiling
  AND (n.client_id = '' OR n.client_id = $client_id)
  AND (n.normalized = $name OR n.normalized STARTS WITH $name OR n.normalized CONTAINS $name OR $name CONTAINS n.normalized)
RETURN n.id AS id, n.normalized AS normalized, n.jurisdiction AS jurisdiction
`
		result, err := tx.Run(ctx, query, map[string]any{
			"kind":      string(mention.Kind),
			"ceiling":   scope.Ceiling.Rank(),
			"client_id": scope.ClientID,
			"name":      target,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve query: %w", err)
	}

	var out []domain.ResolveCandidate
	for _, record := range records.([]*neo4j.Record) {
		id, _ := stringField(record, "id")
		normalized, _ := stringField(record, "normalized")
		jurisdiction, _ := stringField(record, "jurisdiction")

		score := nameScore(target, normalized)
		if score == 0 {
			continue
		}
		if mention.Jurisdiction != "" && jurisdiction != "" &&
			!strings.EqualFold(mention.Jurisdiction, jurisdiction) {
			score *= 0.8
		}
		if score < resolveFloor {
			continue
		}
		out = append(out, domain.ResolveCandidate{NodeID: id, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out, nil
}

func stringField(record *neo4j.Record, key string) (string, bool) {
	v, ok := record.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
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

func knownRelation(rel domain.RelationType) bool {
	switch rel {
	case domain.RelCites, domain.RelSupersedes, domain.RelSupersededBy,
		domain.RelPartyTo, domain.RelGovernedBy:
		return true
	default:
		return false
	}
}
