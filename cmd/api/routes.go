package main

import (
	"log"
	"net/http"

	httphandlers "fatura/internal/interfaces/http"
	"fatura/internal/shared/config"
	"fatura/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Authenticated API surface. Identity comes from the gateway in front
	// of us, see middleware.Identity.
	identity := middleware.Identity()

	mux.Handle("/api/cards", identity(http.HandlerFunc(deps.CardHandler.HandleCards)))
	mux.Handle("/api/cards/{id}", identity(http.HandlerFunc(deps.CardHandler.HandleDeleteCard)))
	mux.Handle("/api/cards/{id}/invoices", identity(http.HandlerFunc(deps.InvoiceHandler.HandleCardInvoices)))
	mux.Handle("/api/purchases", identity(http.HandlerFunc(deps.PurchaseHandler.HandlePurchases)))
	mux.Handle("/api/invoices/{id}/pay", identity(http.HandlerFunc(deps.InvoiceHandler.HandlePayInvoice)))
	mux.Handle("/api/bills", identity(http.HandlerFunc(deps.BillHandler.HandleBills)))
	mux.Handle("/api/bills/{id}", identity(http.HandlerFunc(deps.BillHandler.HandleBillByID)))
	mux.Handle("/api/bills/{id}/pay", identity(http.HandlerFunc(deps.BillHandler.HandlePayBill)))
	mux.Handle("/api/subscriptions", identity(http.HandlerFunc(deps.SubscriptionHandler.HandleSubscriptions)))
	mux.Handle("/api/subscriptions/{id}", identity(http.HandlerFunc(deps.SubscriptionHandler.HandleDeleteSubscription)))
	mux.Handle("/api/subscriptions/{id}/status", identity(http.HandlerFunc(deps.SubscriptionHandler.HandleSubscriptionStatus)))
	mux.Handle("/api/transactions", identity(http.HandlerFunc(deps.TransactionHandler.HandleTransactions)))
	mux.Handle("/api/forecast", identity(http.HandlerFunc(deps.ForecastHandler.HandleForecast)))
	mux.Handle("/api/summary/current-month", identity(http.HandlerFunc(deps.ForecastHandler.HandleCurrentMonthSummary)))
	mux.Handle("/api/notifications", identity(http.HandlerFunc(deps.NotificationHandler.HandleNotifications)))
	mux.Handle("/api/notifications/{id}", identity(http.HandlerFunc(deps.NotificationHandler.HandleNotificationByID)))
	mux.Handle("/api/notifications/{id}/read", identity(http.HandlerFunc(deps.NotificationHandler.HandleMarkRead)))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
