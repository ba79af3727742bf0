package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/DealerHub/app/models"
)

// Service applies a completed checkout: group activation, one activation row
// per selection, then session completion. Each step is idempotent on its own,
// so an interrupted run is finished by the next redelivery.
type Service struct {
	repo    Repository
	timeout time.Duration
	now     func() time.Time
}

// NewService creates the activation service from an injected repository.
func NewService(repo Repository, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Service{repo: repo, timeout: storeTimeout, now: time.Now}
}

// Activate runs all three steps. Only a group activation failure is returned
// as an error; selection and completion failures are carried in the report.
func (s *Service) Activate(ctx context.Context, session *models.CheckoutSession, externalSubscriptionID string) (*Report, error) {
	report, err := s.ActivateGroup(ctx, session)
	if err != nil {
		return report, err
	}

	report.Selections = s.upsertSelections(ctx, session.Selections, externalSubscriptionID)

	if err := s.completeSession(ctx, session.ID); err != nil {
		report.SessionCompletionErr = err
	} else {
		report.SessionCompleted = true
	}
	return report, nil
}

// ActivateGroup marks the session's dealer group active. Setting active on an
// active group is a no-op.
func (s *Service) ActivateGroup(ctx context.Context, session *models.CheckoutSession) (*Report, error) {
	if session == nil {
		return &Report{}, fmt.Errorf("%w: nil checkout session", ErrGroupActivationFailed)
	}
	report := &Report{SessionID: session.ID, DealerGroupID: session.DealerGroupID}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repo.ActivateDealerGroup(callCtx, session.DealerGroupID); err != nil {
		if isTimeout(err) {
			return report, fmt.Errorf("%w: group %s: store timeout: %v", ErrGroupActivationFailed, session.DealerGroupID, err)
		}
		return report, fmt.Errorf("%w: group %s: %v", ErrGroupActivationFailed, session.DealerGroupID, err)
	}
	report.GroupActivated = true
	return report, nil
}

func (s *Service) upsertSelections(ctx context.Context, selections []models.CheckoutSelection, externalSubscriptionID string) []SelectionResult {
	results := make([]SelectionResult, 0, len(selections))
	for i := range selections {
		results = append(results, s.upsertSelection(ctx, &selections[i], externalSubscriptionID))
	}
	return results
}

func (s *Service) upsertSelection(ctx context.Context, sel *models.CheckoutSelection, externalSubscriptionID string) SelectionResult {
	res := SelectionResult{
		DealershipID: strings.TrimSpace(sel.DealershipID),
		ProjectSlug:  strings.TrimSpace(sel.ProjectSlug),
		Tier:         strings.TrimSpace(sel.Tier),
	}
	if err := sel.Validate(); err != nil {
		res.Err = fmt.Errorf("%w: %s/%s: %v", ErrSelectionUpsertFailed, res.DealershipID, res.ProjectSlug, err)
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.repo.UpsertActivation(callCtx, &models.DealershipProjectActivation{
		DealershipID:           res.DealershipID,
		ProjectSlug:            res.ProjectSlug,
		Tier:                   res.Tier,
		ExternalSubscriptionID: externalSubscriptionID,
		IsActive:               true,
	})
	if err != nil {
		res.Err = fmt.Errorf("%w: %s/%s: %v", ErrSelectionUpsertFailed, res.DealershipID, res.ProjectSlug, err)
	}
	return res
}

func (s *Service) completeSession(ctx context.Context, sessionID string) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repo.CompleteCheckoutSession(callCtx, sessionID, s.now()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSessionCompletionFailed, sessionID, err)
	}
	return nil
}
