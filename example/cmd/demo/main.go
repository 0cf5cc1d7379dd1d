// Package main walks through the intended usage of the document mapping
// layer against the in-memory engine: validation, lifecycle observers,
// unique indexes, single and cursor queries, updates, and removal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/example/core"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm/memoryengine"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := memoryengine.NewStore()
	store.EnsureUniqueIndex(core.CollectionReaders, "email")

	observers := odm.NewObserverRegistry(
		core.NewTimestampsObserver(),
		core.NewAuditLogObserver(logger),
	)

	readers, err := odm.NewRepository[core.Reader](store, core.CollectionReaders,
		odm.WithObservers(observers),
		odm.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create the reader repository: %v", err)
	}

	fmt.Println("-- validation --")

	invalid := core.NewReader("", "not-an-address")
	if insertErr := readers.Insert(ctx, invalid); insertErr != nil {
		fmt.Printf("insert rejected: %v\n", insertErr)
		for _, message := range invalid.Errors().FullMessages() {
			fmt.Printf("  - %s\n", message)
		}
	}

	fmt.Println("-- insert --")

	ada := core.NewReader("Ada Lovelace", "ada@example.com")
	if insertErr := readers.Insert(ctx, ada); insertErr != nil {
		log.Fatalf("Failed to insert reader: %v", insertErr)
	}
	fmt.Printf("inserted %s with identity %s, created at %s\n", ada.Name(), ada.Identity(), ada.CreatedAt())

	grace := core.NewReader("Grace Hopper", "grace@example.com")
	if insertErr := readers.Insert(ctx, grace); insertErr != nil {
		log.Fatalf("Failed to insert reader: %v", insertErr)
	}
	fmt.Printf("inserted %s with identity %s\n", grace.Name(), grace.Identity())

	fmt.Println("-- unique index --")

	duplicate := core.NewReader("Ada L.", "ada@example.com")
	if insertErr := readers.Insert(ctx, duplicate); errors.Is(insertErr, odm.ErrDuplicateKey) {
		fmt.Printf("duplicate rejected: %v\n", insertErr)
	}

	fmt.Println("-- find --")

	found, findErr := readers.FindByID(ctx, ada.Identity())
	if findErr != nil {
		log.Fatalf("Failed to find reader by identity: %v", findErr)
	}
	fmt.Printf("found by identity: %s <%s>\n", found.Name(), found.Email())

	byEmail, findOneErr := readers.FindOne(ctx, odm.Fields{odm.F("email", odm.StringValue("grace@example.com"))})
	if findOneErr != nil {
		log.Fatalf("Failed to find reader by email: %v", findOneErr)
	}
	fmt.Printf("found by email: %s <%s>\n", byEmail.Name(), byEmail.Email())

	fmt.Println("-- cursor --")

	cursor := readers.Find(nil)
	for {
		reader, nextErr := cursor.Next(ctx)
		if nextErr != nil {
			log.Fatalf("Failed to iterate readers: %v", nextErr)
		}
		if reader == nil {
			break
		}
		fmt.Printf("  - %s <%s>\n", reader.Name(), reader.Email())
	}

	fmt.Println("-- update --")

	found.Set("name", odm.StringValue("Ada King-Noel"))
	if updateErr := readers.Update(ctx, found); updateErr != nil {
		log.Fatalf("Failed to update reader: %v", updateErr)
	}
	fmt.Printf("renamed to %s, updated at %s\n", found.Name(), found.UpdatedAt())

	fmt.Println("-- remove --")

	if removeErr := readers.Remove(ctx, found); removeErr != nil {
		log.Fatalf("Failed to remove reader: %v", removeErr)
	}
	fmt.Printf("removed %s, state is now %s\n", found.Name(), found.State())

	count, countErr := readers.Count(ctx, nil)
	if countErr != nil {
		log.Fatalf("Failed to count readers: %v", countErr)
	}
	fmt.Printf("%d reader(s) left in the collection\n", count)
}
