package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"fatura/internal/domain/subscription"
)

// SubscriptionJob posts one user's due subscription charges. The store only
// hands out charges not yet posted this month, and posting marks the month,
// so a sweep that runs twice in a day sends nothing twice.
type SubscriptionJob struct {
	userID        int64
	subscriptions []*subscription.Subscription
	poster        *subscription.Service
	now           time.Time
}

// Execute posts every due charge for the user.
func (j *SubscriptionJob) Execute(ctx context.Context) error {
	var errs []error
	for _, sub := range j.subscriptions {
		if err := j.poster.Post(ctx, sub, j.now); err != nil {
			log.Printf("Subscription sweep: subscription %s for user %d: %v", sub.ID, j.userID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UserID returns the user the sweep runs for.
func (j *SubscriptionJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

// Description returns a human-readable description of the job.
func (j *SubscriptionJob) Description() string {
	return fmt.Sprintf("Subscription posting for user %d", j.userID)
}

// SubscriptionProvider builds one SubscriptionJob per user with charges due.
type SubscriptionProvider struct {
	subscriptions *subscription.Service
}

func NewSubscriptionProvider(subscriptions *subscription.Service) *SubscriptionProvider {
	return &SubscriptionProvider{subscriptions: subscriptions}
}

// Jobs fetches due subscriptions and groups them by user.
func (p *SubscriptionProvider) Jobs(ctx context.Context) ([]Job, error) {
	now := time.Now()

	due, err := p.subscriptions.ListDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due subscriptions: %w", err)
	}

	byUser := make(map[int64]*SubscriptionJob)
	for _, sub := range due {
		j, ok := byUser[sub.UserID]
		if !ok {
			j = &SubscriptionJob{userID: sub.UserID, poster: p.subscriptions, now: now}
			byUser[sub.UserID] = j
		}
		j.subscriptions = append(j.subscriptions, sub)
	}

	jobs := make([]Job, 0, len(byUser))
	for _, j := range byUser {
		jobs = append(jobs, j)
	}
	return jobs, nil
}
