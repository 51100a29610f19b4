package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fatura/internal/domain/card"
	"fatura/internal/infrastructure/postgres"
	"fatura/internal/shared/config"
)

const usage = `Fatura Admin CLI - Management commands for the Fatura API

Usage:
  admin <command> [options]

Commands:
  migrate       Apply pending database migrations
  limit-audit   Compare card limit counters against pending installments

Examples:
  # Apply migrations
  admin migrate

  # Audit one card
  admin limit-audit --card-id=9c6b...

  # Audit every card
  admin limit-audit --all

  # Audit with a timeout
  admin limit-audit --all --timeout=5m
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		runMigrate()
	case "limit-audit":
		runLimitAudit(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func connect() *postgres.DB {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")
	return db
}

func runMigrate() {
	db := connect()
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations applied")
}

func runLimitAudit(args []string) {
	fs := flag.NewFlagSet("limit-audit", flag.ExitOnError)

	cardIDStr := fs.String("card-id", "", "Card ID(s) to audit (comma-separated for multiple)")
	allCards := fs.Bool("all", false, "Audit every card")
	timeoutStr := fs.String("timeout", "5m", "Timeout for the operation (e.g., 30s, 5m)")

	fs.Usage = func() {
		fmt.Println("Usage: admin limit-audit [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *cardIDStr == "" && !*allCards {
		fmt.Println("Error: must specify --card-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	db := connect()
	defer db.Close()

	cardRepo := postgres.NewCardRepository(db)
	cardService := card.NewService(cardRepo)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var cardIDs []string
	if *allCards {
		cards, err := cardRepo.ListAll(ctx)
		if err != nil {
			log.Fatalf("Failed to list cards: %v", err)
		}
		for _, c := range cards {
			cardIDs = append(cardIDs, c.ID)
		}
	} else {
		for _, id := range strings.Split(*cardIDStr, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				cardIDs = append(cardIDs, id)
			}
		}
	}

	if len(cardIDs) == 0 {
		log.Println("No cards to audit")
		return
	}

	drifted := 0
	for _, id := range cardIDs {
		audit, err := cardService.AuditLimit(ctx, id)
		if err != nil {
			log.Printf("Audit failed for card %s: %v", id, err)
			continue
		}
		if audit.Consistent {
			fmt.Printf("card %s  ok  (used=%s)\n", audit.CardID, audit.LimitUsed)
			continue
		}
		drifted++
		fmt.Printf("card %s  DRIFT  counter=%d pending=%d delta=%.2f\n",
			audit.CardID, audit.LimitUsed, audit.PendingSum, (audit.LimitUsed - audit.PendingSum).Reais())
	}

	fmt.Printf("\nAudited %d cards, %d drifted\n", len(cardIDs), drifted)
	if drifted > 0 {
		os.Exit(2)
	}
}
