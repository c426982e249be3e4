// Package storage holds the backend-neutral repository bundle and the
// column codecs shared by the postgres and sqlite stores.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// Stores bundles every repository one backend provides
type Stores struct {
	Statements      contracts.StatementRepository
	StatementWriter contracts.StatementWriter
	Scores          contracts.ScoreRepository
	Audit           contracts.AuditRepository
	Labels          contracts.LabelRepository
	Disclosures     contracts.DisclosureRepository
	Graph           contracts.GraphRepository
	Scenarios       contracts.ScenarioRepository
	Seeder          Seeder // nil when the backend's inputs are owned upstream
	Close           func() error
}

// Edge is one relationship row of the synced graph table
type Edge struct {
	Src  string             `json:"src"`
	Dst  string             `json:"dst"`
	Type contracts.EdgeType `json:"type"`
}

// Seeder loads the upstream-owned inputs into a local store
type Seeder interface {
	SaveDisclosures(ctx context.Context, disclosures []contracts.Disclosure) error
	SaveAttributes(ctx context.Context, attrs []contracts.CompanyAttributes) error
	SaveEdges(ctx context.Context, edges []Edge) error
}

// Fixture is the on-disk shape accepted by `credit load`
type Fixture struct {
	Statements  []contracts.StatementRecord   `json:"statements"`
	Disclosures []contracts.Disclosure        `json:"disclosures"`
	Attributes  []contracts.CompanyAttributes `json:"attributes"`
	Edges       []Edge                        `json:"edges"`
}

// Load writes every non-empty part of f into s
func (f *Fixture) Load(ctx context.Context, s Stores) error {
	if len(f.Statements) > 0 {
		if err := s.StatementWriter.SaveStatements(ctx, f.Statements); err != nil {
			return fmt.Errorf("load statements: %w", err)
		}
	}
	if len(f.Disclosures)+len(f.Attributes)+len(f.Edges) == 0 {
		return nil
	}
	if s.Seeder == nil {
		return ErrSeedUnsupported
	}
	if err := s.Seeder.SaveDisclosures(ctx, f.Disclosures); err != nil {
		return fmt.Errorf("load disclosures: %w", err)
	}
	if err := s.Seeder.SaveAttributes(ctx, f.Attributes); err != nil {
		return fmt.Errorf("load attributes: %w", err)
	}
	if err := s.Seeder.SaveEdges(ctx, f.Edges); err != nil {
		return fmt.Errorf("load edges: %w", err)
	}
	return nil
}

// ErrSeedUnsupported is returned when a backend does not accept upstream inputs
var ErrSeedUnsupported = errors.New("backend does not accept disclosure/graph fixtures")

// DecodeItems decodes a stored line-item document. Unknown keys are rejected
// so a schema drift upstream surfaces as a malformed record.
func DecodeItems(data []byte) (contracts.LineItems, error) {
	var items contracts.LineItems
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return items, &contracts.MalformedRecordError{Field: "items", Message: err.Error()}
	}
	return items, nil
}

// EncodeItems encodes line items for storage
func EncodeItems(items contracts.LineItems) ([]byte, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	return data, nil
}

// FlagStrings converts flags to a plain string slice (never nil)
func FlagStrings(flags []contracts.Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

// ParseFlags is the inverse of FlagStrings
func ParseFlags(values []string) []contracts.Flag {
	out := make([]contracts.Flag, len(values))
	for i, v := range values {
		out[i] = contracts.Flag(v)
	}
	return out
}

// EncodeJSON marshals v, wrapping errors with the column name
func EncodeJSON(column string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", column, err)
	}
	return data, nil
}

// DecodeJSON unmarshals a column value into v; empty input leaves v untouched
func DecodeJSON(column string, data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}
