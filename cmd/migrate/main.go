package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/ignite/outreach-orchestrator/internal/repository/postgres"
)

// schemas are applied in dependency order: tenants before the rows that
// reference tenant_id, queue before nothing (self-contained), offers before
// tracking_events (which references offer_id).
var schemas = []struct {
	name string
	ddl  string
}{
	{"tenants", postgres.TenantSchema},
	{"leads", postgres.LeadSchema},
	{"suppressions", postgres.SuppressionSchema},
	{"messenger_messages", postgres.Schema},
	{"analyses", postgres.AnalysisSchema},
	{"benchmarks", postgres.BenchmarkSchema},
	{"offers", postgres.OfferSchema},
	{"tracking_events", postgres.TrackingEventSchema},
	{"issue_definitions", postgres.IssueRegistrySchema},
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	if listOnly {
		rows, err := db.Query("SELECT tablename FROM pg_tables WHERE schemaname='public' ORDER BY tablename")
		if err != nil {
			log.Fatal(err)
		}
		defer rows.Close()
		n := 0
		for rows.Next() {
			var t string
			rows.Scan(&t)
			fmt.Println(" ", t)
			n++
		}
		fmt.Printf("Total: %d tables\n", n)
		return
	}

	var okCount, errCount int
	for _, s := range schemas {
		fmt.Printf("  %s ... ", s.name)
		tx, err := db.Begin()
		if err != nil {
			fmt.Printf("BEGIN ERROR: %v\n", err)
			errCount++
			continue
		}
		if _, err := tx.Exec(s.ddl); err != nil {
			tx.Rollback()
			fmt.Printf("ERROR: %v\n", err)
			errCount++
			continue
		}
		tx.Commit()
		fmt.Println("OK")
		okCount++
	}
	log.Printf("Done: %d OK, %d errors", okCount, errCount)
}
