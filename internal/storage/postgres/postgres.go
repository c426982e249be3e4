package postgres

import (
	"github.com/wonny/aegis-credit/internal/storage"
	"github.com/wonny/aegis-credit/pkg/database"
)

// NewStores wires every repository over db. Close closes the pool.
func NewStores(db *database.DB) storage.Stores {
	statements := NewStatementRepository(db.Pool)
	scores := NewScoreRepository(db.Pool)

	return storage.Stores{
		Statements:      statements,
		StatementWriter: statements,
		Scores:          scores,
		Audit:           scores,
		Labels:          NewLabelRepository(db.Pool),
		Disclosures:     NewDisclosureRepository(db.Pool),
		Graph:           NewGraphRepository(db.Pool),
		Scenarios:       NewScenarioRepository(db.Pool),
		Close: func() error {
			db.Close()
			return nil
		},
	}
}
