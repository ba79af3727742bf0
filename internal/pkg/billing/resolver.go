package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/DealerHub/app/models"
	"gorm.io/gorm"
)

// DefaultStoreTimeout bounds every individual store call.
const DefaultStoreTimeout = 5 * time.Second

// Resolver loads the checkout intent a completion event refers to.
type Resolver struct {
	repo    Repository
	timeout time.Duration
}

func NewResolver(repo Repository, storeTimeout time.Duration) *Resolver {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Resolver{repo: repo, timeout: storeTimeout}
}

// Resolve fetches the checkout session and its selections. A session without
// selections is returned together with ErrEmptySelections so the caller can
// still activate the dealer group.
func (r *Resolver) Resolve(ctx context.Context, correlationID string) (*models.CheckoutSession, error) {
	id := strings.TrimSpace(correlationID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty correlation id", ErrMalformedEvent)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session, err := r.repo.FindCheckoutSession(callCtx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("%w: find checkout session %s: %v", ErrStoreUnavailable, id, err)
	}
	if strings.TrimSpace(session.DealerGroupID) == "" {
		return nil, fmt.Errorf("%w: checkout session %s has no dealer group", ErrSessionNotFound, id)
	}
	if len(session.Selections) == 0 {
		return session, fmt.Errorf("%w: %s", ErrEmptySelections, id)
	}
	return session, nil
}
