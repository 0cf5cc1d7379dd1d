package odm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm/memoryengine"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/testutil/fixtures"
)

func Test_Cursor_StreamsAllMatchesInInsertionOrder(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newReaderRepository(t, memoryengine.NewStore())

	// arrange
	ann := fixtures.NewReader("Ann Reader", "ann@example.com")
	ann.Set("active", odm.BoolValue(true))
	bob := fixtures.NewReader("Bob Reader", "bob@example.com")
	bob.Set("active", odm.BoolValue(false))
	cem := fixtures.NewReader("Cem Reader", "cem@example.com")
	cem.Set("active", odm.BoolValue(true))
	assert.NoError(t, repo.Insert(ctx, ann))
	assert.NoError(t, repo.Insert(ctx, bob))
	assert.NoError(t, repo.Insert(ctx, cem))

	// act
	cursor := repo.Find(odm.Fields{odm.F("active", odm.BoolValue(true))})

	var names []string
	for {
		reader, err := cursor.Next(ctx)
		assert.NoError(t, err)
		if reader == nil {
			break
		}
		names = append(names, reader.Name())
	}

	// assert
	assert.Equal(t, []string{"Ann Reader", "Cem Reader"}, names)
}

func Test_Cursor_IsLazy_TheQueryRunsOnTheFirstNext(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newReaderRepository(t, memoryengine.NewStore())

	// arrange: build the cursor before anything is stored
	cursor := repo.Find(nil)

	assert.NoError(t, repo.Insert(ctx, fixtures.NewReader("Ann Reader", "ann@example.com")))

	// act
	reader, err := cursor.Next(ctx)

	// assert
	assert.NoError(t, err)
	assert.NotNil(t, reader, "a document inserted after Find but before the first Next must be visible")
	assert.Equal(t, "Ann Reader", reader.Name())
}

func Test_Cursor_WhenExhausted_ReportsAbsentForever(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newReaderRepository(t, memoryengine.NewStore())

	// arrange
	assert.NoError(t, repo.Insert(ctx, fixtures.NewReader("Ann Reader", "ann@example.com")))

	cursor := repo.Find(nil)
	first, firstErr := cursor.Next(ctx)
	assert.NoError(t, firstErr)
	assert.NotNil(t, first)

	exhausted, exhaustedErr := cursor.Next(ctx)
	assert.NoError(t, exhaustedErr)
	assert.Nil(t, exhausted)

	// act: the collection grows, the cursor must not notice
	assert.NoError(t, repo.Insert(ctx, fixtures.NewReader("Bob Reader", "bob@example.com")))
	again, againErr := cursor.Next(ctx)

	// assert
	assert.NoError(t, againErr)
	assert.Nil(t, again, "an exhausted cursor stays exhausted")
}

func Test_Cursor_Close_ExhaustsTheCursor(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newReaderRepository(t, memoryengine.NewStore())

	// arrange
	assert.NoError(t, repo.Insert(ctx, fixtures.NewReader("Ann Reader", "ann@example.com")))
	assert.NoError(t, repo.Insert(ctx, fixtures.NewReader("Bob Reader", "bob@example.com")))

	cursor := repo.Find(nil)
	first, firstErr := cursor.Next(ctx)
	assert.NoError(t, firstErr)
	assert.NotNil(t, first)

	// act
	assert.NoError(t, cursor.Close())
	next, nextErr := cursor.Next(ctx)

	// assert
	assert.NoError(t, nextErr)
	assert.Nil(t, next)
}

func Test_Cursor_Close_BeforeTheFirstNext_IsANoOp(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newReaderRepository(t, memoryengine.NewStore())

	// arrange
	cursor := repo.Find(nil)

	// act
	assert.NoError(t, cursor.Close())
	next, err := cursor.Next(ctx)

	// assert
	assert.NoError(t, err)
	assert.Nil(t, next)
}

func Test_Cursor_HydratedDocumentsArePersistedAndMutable(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newReaderRepository(t, memoryengine.NewStore())

	// arrange
	assert.NoError(t, repo.Insert(ctx, fixtures.NewReader("Ann Reader", "ann@example.com")))

	cursor := repo.Find(nil)
	reader, err := cursor.Next(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, reader)
	assert.True(t, reader.IsPersisted())

	// act: documents out of a cursor go through the usual update flow
	reader.Set("name", odm.StringValue("Ann R."))
	assert.NoError(t, repo.Update(ctx, reader))

	// assert
	found, findErr := repo.FindByID(ctx, reader.Identity())
	assert.NoError(t, findErr)
	assert.Equal(t, "Ann R.", found.Name())
}
