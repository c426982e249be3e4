package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// ErrScenarioImmutable means a referenced scenario's definition changed
var ErrScenarioImmutable = errors.New("scenario is immutable once referenced")

// Registry pins scenario definitions once a backtest references them
// ⭐ SSOT: 시나리오 불변성 검사는 여기서만
type Registry struct {
	repo   contracts.ScenarioRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewRegistry creates a registry over repo
func NewRegistry(repo contracts.ScenarioRepository, log *logger.Logger) *Registry {
	return &Registry{
		repo:   repo,
		logger: log.WithField("module", "scenario"),
		now:    time.Now,
	}
}

// Verify fails when the stored fingerprint of a referenced scenario differs
// from scn. Unreferenced or unknown scenarios always pass.
func (r *Registry) Verify(ctx context.Context, scn *WeightScenario) error {
	fp, err := r.repo.GetScenarioFingerprint(ctx, scn.Name(), scn.Version())
	if errors.Is(err, contracts.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get fingerprint %s: %w", scn.ID(), err)
	}

	if fp.ReferencedAt != nil && fp.Hash != scn.Hash() {
		r.logger.WithFields(map[string]interface{}{
			"scenario":    scn.ID(),
			"stored_hash": fp.Hash,
			"file_hash":   scn.Hash(),
		}).Error("Referenced scenario definition changed")
		return fmt.Errorf("%s: %w (bump the version instead)", scn.ID(), ErrScenarioImmutable)
	}
	return nil
}

// Reference verifies scn and records it as referenced
func (r *Registry) Reference(ctx context.Context, scn *WeightScenario) error {
	if err := r.Verify(ctx, scn); err != nil {
		return err
	}

	now := r.now()
	fp := contracts.ScenarioFingerprint{
		Name:         scn.Name(),
		Version:      scn.Version(),
		Hash:         scn.Hash(),
		ReferencedAt: &now,
		CreatedAt:    now,
	}

	existing, err := r.repo.GetScenarioFingerprint(ctx, scn.Name(), scn.Version())
	if err == nil {
		fp.CreatedAt = existing.CreatedAt
		if existing.ReferencedAt != nil {
			fp.ReferencedAt = existing.ReferencedAt
		}
	} else if !errors.Is(err, contracts.ErrNotFound) {
		return fmt.Errorf("get fingerprint %s: %w", scn.ID(), err)
	}

	if err := r.repo.SaveScenarioFingerprint(ctx, fp); err != nil {
		return fmt.Errorf("save fingerprint %s: %w", scn.ID(), err)
	}
	return nil
}
