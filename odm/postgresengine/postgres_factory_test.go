package postgresengine_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm/postgresengine"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/testutil/postgresengine/config"
	. "github.com/AntonStoeckl/schemaless-documents-odm-go/testutil/postgresengine/postgreswrapper" //nolint:revive
)

func Test_FactoryFunctions_NewEngine_ShouldPanic_WithUnsupportedAdapterType(t *testing.T) {
	// Save the original env var
	originalAdapterType := os.Getenv("ADAPTER_TYPE")
	defer func() {
		if originalAdapterType == "" {
			err := os.Unsetenv("ADAPTER_TYPE")
			assert.NoError(t, err)
		} else {
			err := os.Setenv("ADAPTER_TYPE", originalAdapterType)
			assert.NoError(t, err)
		}
	}()

	// Set an unsupported adapter type
	err := os.Setenv("ADAPTER_TYPE", "unsupported")
	assert.NoError(t, err)

	assert.Panics(t, func() {
		createErr := TryCreateEngine(t, postgresengine.WithTablePrefix("test_"))
		assert.NoError(t, createErr)
	})
}

func Test_FactoryFunctions_NewEngine_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (postgresengine.Engine, error)
	}{
		{
			name: "NewEngineFromPGXPool with nil",
			factoryFunc: func() (postgresengine.Engine, error) {
				return postgresengine.NewEngineFromPGXPool(nil)
			},
		},
		{
			name: "NewEngineFromPGXPoolWithReplica with nil primary and replica",
			factoryFunc: func() (postgresengine.Engine, error) {
				return postgresengine.NewEngineFromPGXPoolWithReplica(nil, nil)
			},
		},
		{
			name: "NewEngineFromPGXPoolWithReplica with nil replica",
			factoryFunc: func() (postgresengine.Engine, error) {
				connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolSingleConfig())
				assert.NoError(t, err, "error creating the DB pool in test setup")
				defer connPool.Close()

				return postgresengine.NewEngineFromPGXPoolWithReplica(connPool, nil)
			},
		},
		{
			name: "NewEngineFromSQLDB with nil",
			factoryFunc: func() (postgresengine.Engine, error) {
				return postgresengine.NewEngineFromSQLDB(nil)
			},
		},
		{
			name: "NewEngineFromSQLX with nil",
			factoryFunc: func() (postgresengine.Engine, error) {
				return postgresengine.NewEngineFromSQLX(nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.factoryFunc()

			// assert
			assert.ErrorContains(t, err, odm.ErrNilDatabaseConnection.Error())
		})
	}
}

func Test_FactoryFunctions_Engine_WithTablePrefix_ShouldWorkCorrectly(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithTablePrefix("prefixed_"))
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	SetUpCollection(t, engine, "notes")
	coll := engine.Collection("notes")

	doc := odm.Fields{
		odm.F("title", odm.StringValue("shopping list")),
	}

	_, insertErr := coll.InsertOne(ctxWithTimeout, doc)
	assert.NoError(t, insertErr, "error in inserting the document")

	// act
	count, countErr := coll.Count(ctxWithTimeout, nil)

	// assert
	assert.NoError(t, countErr, "error in counting the documents")
	assert.Equal(t, int64(1), count, "there should be exactly 1 document")
}

func Test_FactoryFunctions_Engine_ShouldFail_WithNonExistentCollectionTable(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// act
	_, err := engine.Collection("non_existent_collection_1").Count(ctxWithTimeout, nil)

	// assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
