package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"fatura/internal/domain/bill"
	"fatura/internal/domain/card"
	"fatura/internal/domain/cycle"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/notification"
)

// ReminderJob sweeps one user's cards and bills and emits the day's
// notifications: invoice closing today, invoice payable now, bill due soon.
// The notification service deduplicates per day, so re-running the sweep is
// harmless.
type ReminderJob struct {
	userID        int64
	cards         []*card.Card
	dueBills      []*bill.Bill
	invoices      invoice.Repository
	notifications *notification.Service
	now           time.Time
}

// Execute runs the reminder sweep for the user.
func (j *ReminderJob) Execute(ctx context.Context) error {
	var errs []error

	for _, c := range j.cards {
		if err := j.remindCard(ctx, c); err != nil {
			log.Printf("Reminder sweep: card %s for user %d: %v", c.ID, j.userID, err)
			errs = append(errs, err)
		}
	}

	for _, b := range j.dueBills {
		if err := j.notifications.BillDueSoon(ctx, b, j.now); err != nil {
			log.Printf("Reminder sweep: bill %s for user %d: %v", b.ID, j.userID, err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (j *ReminderJob) remindCard(ctx context.Context, c *card.Card) error {
	cfg := cycle.Config{ClosingDay: c.ClosingDay, DueDay: c.DueDay}
	if err := cfg.Validate(); err != nil {
		return err
	}

	day := j.now.Day()

	if day == c.ClosingDay {
		if err := j.notifications.InvoiceClosing(ctx, c, j.now); err != nil {
			return err
		}
	}

	if !cfg.PayableOn(day) {
		return nil
	}

	// Only the current calendar cycle's invoice is ever payable, so that is
	// the one worth reminding about.
	inv, err := j.invoices.GetByCycle(ctx, c.ID, cycle.KeyOf(j.now))
	if errors.Is(err, invoice.ErrInvoiceNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if inv.Status != invoice.StatusPending || inv.Total <= 0 {
		return nil
	}

	return j.notifications.PaymentReminder(ctx, c, inv, j.now)
}

// UserID returns the user the sweep runs for.
func (j *ReminderJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

// Description returns a human-readable description of the job.
func (j *ReminderJob) Description() string {
	return fmt.Sprintf("Reminder sweep for user %d", j.userID)
}

// ReminderProvider builds one ReminderJob per user with anything to look at.
type ReminderProvider struct {
	cards         card.Repository
	bills         bill.Repository
	invoices      invoice.Repository
	notifications *notification.Service
	reminderDays  int
}

func NewReminderProvider(cards card.Repository, bills bill.Repository, invoices invoice.Repository, notifications *notification.Service, reminderDays int) *ReminderProvider {
	return &ReminderProvider{
		cards:         cards,
		bills:         bills,
		invoices:      invoices,
		notifications: notifications,
		reminderDays:  reminderDays,
	}
}

// Jobs fetches every card and every soon-due bill, groups them by user and
// returns one job per user.
func (p *ReminderProvider) Jobs(ctx context.Context) ([]Job, error) {
	now := time.Now()

	var (
		allCards []*card.Card
		dueBills []*bill.Bill
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allCards, err = p.cards.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		dueBills, err = p.bills.ListPendingDueWithin(gctx, now.AddDate(0, 0, p.reminderDays))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch reminder inputs: %w", err)
	}

	byUser := make(map[int64]*ReminderJob)
	jobFor := func(userID int64) *ReminderJob {
		j, ok := byUser[userID]
		if !ok {
			j = &ReminderJob{
				userID:        userID,
				invoices:      p.invoices,
				notifications: p.notifications,
				now:           now,
			}
			byUser[userID] = j
		}
		return j
	}

	for _, c := range allCards {
		j := jobFor(c.UserID)
		j.cards = append(j.cards, c)
	}
	for _, b := range dueBills {
		j := jobFor(b.UserID)
		j.dueBills = append(j.dueBills, b)
	}

	jobs := make([]Job, 0, len(byUser))
	for _, j := range byUser {
		jobs = append(jobs, j)
	}
	return jobs, nil
}
