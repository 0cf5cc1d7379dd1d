// Package main seeds a document collection with generated reader documents
// for manual load and query experiments. Documents are bulk-loaded through
// the pgx COPY protocol, which is much faster than row-by-row inserts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm/postgresengine"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/testutil/postgresengine/config"
)

// Config holds the command-line configuration for the seed tool.
type Config struct {
	Collection string
	Count      int
	Truncate   bool
}

var firstNames = []string{
	"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Leslie", "Tony", "Niklaus", "Margaret",
}

var lastNames = []string{
	"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Lamport", "Hoare", "Wirth", "Hamilton",
}

var cities = []string{
	"Berlin", "Hamburg", "Munich", "Cologne", "Leipzig", "Dresden",
}

func main() {
	cfg := parseFlags()

	if err := seed(cfg); err != nil {
		log.Fatalf("Error seeding documents: %v", err)
	}
}

func parseFlags() Config {
	collection := flag.String("collection", "readers", "Collection to seed")
	count := flag.Int("count", 100000, "Number of documents to generate")
	truncate := flag.Bool("truncate", false, "Clear the collection before seeding")
	flag.Parse()

	return Config{
		Collection: *collection,
		Count:      *count,
		Truncate:   *truncate,
	}
}

func seed(cfg Config) error {
	startTime := time.Now()

	fmt.Println("🚀 Starting document seeding")
	fmt.Printf("📊 Documents to generate: %s\n", formatNumber(cfg.Count))
	fmt.Printf("🎯 Target collection: %s\n", cfg.Collection)
	fmt.Println()

	ctx := context.Background()

	fmt.Printf("🔗\tConnecting to database...")
	connPool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolSingleConfig())
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer connPool.Close()
	fmt.Println(" ✅")

	engine, err := postgresengine.NewEngineFromPGXPool(connPool)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	fmt.Printf("🧱\tEnsuring collection table exists...")
	if createErr := engine.CreateCollectionTable(ctx, cfg.Collection); createErr != nil {
		return fmt.Errorf("failed to create collection table: %w", createErr)
	}
	fmt.Println(" ✅")

	tx, err := connPool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Will be ignored if already committed
	}()

	if cfg.Truncate {
		fmt.Printf("🧹\tClearing existing documents...")
		if _, truncateErr := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %q", cfg.Collection)); truncateErr != nil {
			return fmt.Errorf("failed to truncate table: %w", truncateErr)
		}
		fmt.Println(" ✅")
	}

	fmt.Printf("📥\tBulk-loading documents...")
	copyStart := time.Now()

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{cfg.Collection},
		[]string{"id", "doc"},
		pgx.CopyFromSlice(cfg.Count, func(_ int) ([]any, error) {
			id, doc, buildErr := generateReaderDocument()
			if buildErr != nil {
				return nil, buildErr
			}

			return []any{string(id), doc}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk-load documents: %w", err)
	}
	fmt.Printf(" ✅ %v\n", time.Since(copyStart).Round(time.Millisecond))

	fmt.Printf("📊\tUpdating table statistics...")
	if _, analyzeErr := tx.Exec(ctx, fmt.Sprintf("ANALYZE %q", cfg.Collection)); analyzeErr != nil {
		return fmt.Errorf("failed to analyze table: %w", analyzeErr)
	}
	fmt.Println(" ✅")

	fmt.Printf("💾\tCommitting transaction...")
	if commitErr := tx.Commit(ctx); commitErr != nil {
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	}
	fmt.Println(" ✅")

	var total int
	if countErr := connPool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %q", cfg.Collection)).Scan(&total); countErr != nil {
		return fmt.Errorf("failed to verify seeding: %w", countErr)
	}

	fmt.Println()
	fmt.Printf("Seeding completed! 🎉\n")
	fmt.Printf("Documents loaded: %s 📊\n", formatNumber(int(copied)))
	fmt.Printf("Collection size: %s 📦\n", formatNumber(total))
	fmt.Printf("Total time: %v ⏱️\n", time.Since(startTime).Round(time.Millisecond))

	return nil
}

// generateReaderDocument builds one random reader document and encodes it
// into the JSON the doc column stores.
func generateReaderDocument() (odm.ID, []byte, error) {
	id := odm.NewID()
	name := firstNames[rand.IntN(len(firstNames))] + " " + lastNames[rand.IntN(len(lastNames))]
	email := uuid.NewString() + "@example.com"

	doc := odm.Fields{
		odm.F("name", odm.StringValue(name)),
		odm.F("email", odm.StringValue(email)),
		odm.F("active", odm.BoolValue(rand.IntN(100) < 80)),
		odm.F("membership_number", odm.NumberValue(float64(rand.IntN(1000000)))),
		odm.F("address", odm.MappingValue(
			odm.F("city", odm.StringValue(cities[rand.IntN(len(cities))])),
		)),
	}

	encoded, err := doc.MarshalJSON()
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode document: %w", err)
	}

	return id, encoded, nil
}

func formatNumber(n int) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000.0)
	} else if n >= 100000 {
		return fmt.Sprintf("%.0fK", float64(n)/1000)
	} else if n >= 10000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}

	return strconv.Itoa(n)
}
