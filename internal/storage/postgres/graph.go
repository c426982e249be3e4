package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/scenario"
)

// GraphRepository implements contracts.GraphRepository over the synced edge table
type GraphRepository struct {
	pool *pgxpool.Pool
}

// NewGraphRepository creates a new graph repository
func NewGraphRepository(pool *pgxpool.Pool) *GraphRepository {
	return &GraphRepository{pool: pool}
}

// CountEdges counts edges touching graphID by type. Unknown ids yield empty counts.
func (r *GraphRepository) CountEdges(ctx context.Context, graphID string) (contracts.EdgeCounts, error) {
	query := `
		SELECT edge_type, COUNT(*)
		FROM credit.graph_edges
		WHERE src_graph_id = $1 OR dst_graph_id = $1
		GROUP BY edge_type
	`

	rows, err := r.pool.Query(ctx, query, graphID)
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	defer rows.Close()

	counts := make(contracts.EdgeCounts)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan edge count: %w", err)
		}
		counts[contracts.EdgeType(typ)] = n
	}
	return counts, rows.Err()
}

// GetAttributes returns stored qualitative attributes. A company with no
// row gets empty attributes (unlinked), not an error.
func (r *GraphRepository) GetAttributes(ctx context.Context, companyID string) (*contracts.CompanyAttributes, error) {
	query := `
		SELECT company_id, graph_id, disclosure_corrections, auditor_changes, largest_shareholder_stake
		FROM credit.company_attributes
		WHERE company_id = $1
	`

	a := &contracts.CompanyAttributes{}
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&a.CompanyID, &a.GraphID, &a.DisclosureCorrections, &a.AuditorChanges, &a.LargestShareholderStake,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &contracts.CompanyAttributes{CompanyID: companyID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attributes %s: %w", companyID, err)
	}
	return a, nil
}

// ScenarioRepository implements contracts.ScenarioRepository
type ScenarioRepository struct {
	pool *pgxpool.Pool
}

// NewScenarioRepository creates a new scenario fingerprint repository
func NewScenarioRepository(pool *pgxpool.Pool) *ScenarioRepository {
	return &ScenarioRepository{pool: pool}
}

// GetScenarioFingerprint returns contracts.ErrNotFound for unknown scenarios
func (r *ScenarioRepository) GetScenarioFingerprint(ctx context.Context, name string, version int) (*contracts.ScenarioFingerprint, error) {
	query := `
		SELECT name, version, hash, referenced_at, created_at
		FROM credit.scenario_fingerprints
		WHERE name = $1 AND version = $2
	`

	var fp contracts.ScenarioFingerprint
	err := r.pool.QueryRow(ctx, query, name, version).Scan(&fp.Name, &fp.Version, &fp.Hash, &fp.ReferencedAt, &fp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scenario %s: %w", scenario.FormatID(name, version), contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get fingerprint: %w", err)
	}
	return &fp, nil
}

// SaveScenarioFingerprint upserts a fingerprint. Once referenced_at is set it is kept.
func (r *ScenarioRepository) SaveScenarioFingerprint(ctx context.Context, fp contracts.ScenarioFingerprint) error {
	query := `
		INSERT INTO credit.scenario_fingerprints (name, version, hash, referenced_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, version) DO UPDATE SET
			hash = EXCLUDED.hash,
			referenced_at = COALESCE(credit.scenario_fingerprints.referenced_at, EXCLUDED.referenced_at)
	`

	if _, err := r.pool.Exec(ctx, query, fp.Name, fp.Version, fp.Hash, fp.ReferencedAt, fp.CreatedAt); err != nil {
		return fmt.Errorf("save fingerprint %s: %w", scenario.FormatID(fp.Name, fp.Version), err)
	}
	return nil
}
