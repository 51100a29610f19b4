package main

import (
	"context"
	"log"

	"fatura/internal/domain/bill"
	"fatura/internal/domain/card"
	"fatura/internal/domain/forecast"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/notification"
	"fatura/internal/domain/subscription"
	"fatura/internal/infrastructure/amqp"
	"fatura/internal/infrastructure/postgres"
	"fatura/internal/infrastructure/redis"
	httphandlers "fatura/internal/interfaces/http"
	"fatura/internal/interfaces/scheduler"
	"fatura/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB        *postgres.DB
	Publisher *amqp.Publisher

	// Handlers
	CardHandler         *httphandlers.CardHandler
	PurchaseHandler     *httphandlers.PurchaseHandler
	InvoiceHandler      *httphandlers.InvoiceHandler
	BillHandler         *httphandlers.BillHandler
	SubscriptionHandler *httphandlers.SubscriptionHandler
	TransactionHandler  *httphandlers.TransactionHandler
	ForecastHandler     *httphandlers.ForecastHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Job providers for the scheduler
	ReminderProvider     *scheduler.ReminderProvider
	SubscriptionProvider *scheduler.SubscriptionProvider
}

// ScheduledJobs feeds the scheduler with reminder sweeps and subscription
// posting jobs.
func (d *Dependencies) ScheduledJobs(ctx context.Context) ([]scheduler.Job, error) {
	jobs, err := d.ReminderProvider.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	posting, err := d.SubscriptionProvider.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	return append(jobs, posting...), nil
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database and apply migrations
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize repositories
	cardRepo := postgres.NewCardRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	billRepo := postgres.NewBillRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Event publisher is optional: without a broker, notifications are
	// stored but not fanned out.
	var publisher *amqp.Publisher
	var eventPublisher notification.Publisher
	if cfg.Broker.Enabled {
		publisher, err = amqp.NewPublisher(cfg.Broker.URL, cfg.Broker.Exchange)
		if err != nil {
			db.Close()
			return nil, err
		}
		eventPublisher = publisher
		log.Printf("Connected to broker, publishing to exchange %q", cfg.Broker.Exchange)
	}

	// Forecast cache is optional too; misses fall back to recomputing.
	var forecastCache forecast.Cache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: redis unavailable, forecast cache disabled: %v", err)
		} else {
			forecastCache = redis.NewForecastCache(redisClient, cfg.Redis.ForecastTTL)
			log.Println("Forecast cache enabled")
		}
	}

	// Initialize domain services
	notificationService := notification.NewService(notificationRepo, eventPublisher)
	cardService := card.NewService(cardRepo)
	invoiceService := invoice.NewService(invoiceRepo, cardRepo, notificationService)
	billService := bill.NewService(billRepo, notificationService)
	subscriptionService := subscription.NewService(subscriptionRepo, cardRepo, invoiceService)
	forecastService := forecast.NewService(transactionRepo, forecastCache)

	return &Dependencies{
		DB:                   db,
		Publisher:            publisher,
		CardHandler:          httphandlers.NewCardHandler(cardService),
		PurchaseHandler:      httphandlers.NewPurchaseHandler(invoiceService, forecastService),
		InvoiceHandler:       httphandlers.NewInvoiceHandler(invoiceService),
		BillHandler:          httphandlers.NewBillHandler(billService, forecastService),
		SubscriptionHandler:  httphandlers.NewSubscriptionHandler(subscriptionService),
		TransactionHandler:   httphandlers.NewTransactionHandler(transactionRepo, forecastService),
		ForecastHandler:      httphandlers.NewForecastHandler(forecastService),
		NotificationHandler:  httphandlers.NewNotificationHandler(notificationService),
		ReminderProvider:     scheduler.NewReminderProvider(cardRepo, billRepo, invoiceRepo, notificationService, cfg.Scheduler.BillReminderDays),
		SubscriptionProvider: scheduler.NewSubscriptionProvider(subscriptionService),
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			log.Printf("Error closing broker connection: %v", err)
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
