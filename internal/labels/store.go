// Package labels builds and stores curated failure labels used by the
// optimizer and backtests as ground truth.
package labels

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// Store is the append-mostly label store
// ⭐ SSOT: 실패 라벨 적재/조회는 여기서만
type Store struct {
	repo   contracts.LabelRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewStore creates a store over repo
func NewStore(repo contracts.LabelRepository, log *logger.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: log.WithField("module", "labels"),
		now:    time.Now,
	}
}

type dedupKey struct {
	companyID string
	typ       contracts.FailureType
	date      string
	evidence  string
}

func keyOf(l contracts.FailureLabel) dedupKey {
	return dedupKey{l.CompanyID, l.FailureType, l.Date.UTC().Format("2006-01-02"), l.Evidence}
}

// Append validates and stores labels, skipping duplicates on
// (company, type, date, evidence). Returns the number inserted.
func (s *Store) Append(ctx context.Context, labels []contracts.FailureLabel) (int, error) {
	seen := make(map[dedupKey]struct{}, len(labels))
	batch := make([]contracts.FailureLabel, 0, len(labels))

	for _, l := range labels {
		if err := validateLabel(l); err != nil {
			return 0, err
		}
		k := keyOf(l)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = s.now()
		}
		batch = append(batch, l)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	inserted, err := s.repo.AppendLabels(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("append labels: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"offered":  len(labels),
		"inserted": inserted,
	}).Info("Labels appended")
	return inserted, nil
}

// List returns a company's labels
func (s *Store) List(ctx context.Context, companyID string) ([]contracts.FailureLabel, error) {
	labels, err := s.repo.ListLabels(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list labels %s: %w", companyID, err)
	}
	return labels, nil
}

// Outcomes maps every labeled company to whether it has a label at or
// above minConfidence. Unlabeled companies are absent (not failed).
func (s *Store) Outcomes(ctx context.Context, minConfidence float64) (map[string]bool, error) {
	labels, err := s.repo.ListLabels(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	out := make(map[string]bool)
	for _, l := range labels {
		if l.Confidence >= minConfidence {
			out[l.CompanyID] = true
		} else if _, ok := out[l.CompanyID]; !ok {
			out[l.CompanyID] = false
		}
	}
	return out, nil
}

func validateLabel(l contracts.FailureLabel) error {
	if l.CompanyID == "" {
		return &contracts.MalformedRecordError{Field: "company_id", Message: "required"}
	}
	if l.FailureType == "" {
		return &contracts.MalformedRecordError{Field: "failure_type", Message: "required"}
	}
	if l.Confidence < 0 || l.Confidence > 1 {
		return &contracts.MalformedRecordError{Field: "confidence", Message: fmt.Sprintf("must be in [0, 1], got %v", l.Confidence)}
	}
	if l.Date.IsZero() {
		return &contracts.MalformedRecordError{Field: "date", Message: "required"}
	}
	return nil
}
