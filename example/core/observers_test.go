package core_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/example/core"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm/memoryengine"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/testutil/testdoubles"
)

func Test_Reader_Validate(t *testing.T) {
	// act + assert
	assert.True(t, odm.IsValid(core.NewReader("Ada Lovelace", "ada@example.com")))

	invalid := core.NewReader("", "not-an-address")
	assert.False(t, odm.IsValid(invalid))
	assert.Equal(t,
		[]string{"name can't be empty", "email is not a valid address"},
		invalid.Errors().FullMessages())

	withBadNumber := core.NewReader("Ada Lovelace", "ada@example.com")
	withBadNumber.Set("membership_number", odm.StringValue("not-a-number"))
	assert.False(t, odm.IsValid(withBadNumber))
	assert.Equal(t,
		[]string{"membership_number must be a number"},
		withBadNumber.Errors().FullMessages())
}

func Test_TimestampsObserver_When_Inserting(t *testing.T) {
	// setup
	clock := &steppingClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	observers := odm.NewObserverRegistry(core.NewTimestampsObserverWithClock(clock.Now))
	repo := givenReaderRepository(t, odm.WithObservers(observers))
	reader := core.NewReader("Ada Lovelace", "ada@example.com")

	// act
	err := repo.Insert(context.Background(), reader)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T12:00:00Z", reader.CreatedAt())
	assert.Equal(t, "2025-06-01T12:00:00Z", reader.UpdatedAt())
}

func Test_TimestampsObserver_When_Updating(t *testing.T) {
	// setup
	clock := &steppingClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	observers := odm.NewObserverRegistry(core.NewTimestampsObserverWithClock(clock.Now))
	repo := givenReaderRepository(t, odm.WithObservers(observers))
	ctx := context.Background()

	reader := core.NewReader("Ada Lovelace", "ada@example.com")
	require.NoError(t, repo.Insert(ctx, reader))

	// act
	clock.Advance(time.Hour)
	reader.Set("name", odm.StringValue("Ada King-Noel"))
	err := repo.Update(ctx, reader)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T12:00:00Z", reader.CreatedAt())
	assert.Equal(t, "2025-06-01T13:00:00Z", reader.UpdatedAt())
}

func Test_TimestampsObserver_StampsSurviveTheStorageRoundTrip(t *testing.T) {
	// setup
	clock := &steppingClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	observers := odm.NewObserverRegistry(core.NewTimestampsObserverWithClock(clock.Now))
	repo := givenReaderRepository(t, odm.WithObservers(observers))
	ctx := context.Background()

	reader := core.NewReader("Ada Lovelace", "ada@example.com")
	require.NoError(t, repo.Insert(ctx, reader))

	// act
	loaded, err := repo.FindByID(ctx, reader.Identity())

	// assert
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "2025-06-01T12:00:00Z", loaded.CreatedAt())
	assert.Equal(t, "2025-06-01T12:00:00Z", loaded.UpdatedAt())
}

func Test_AuditLogObserver_RecordsEveryCompletedWrite(t *testing.T) {
	// setup
	spy := testdoubles.NewLogHandlerSpy(false)
	observers := odm.NewObserverRegistry(core.NewAuditLogObserver(slog.New(spy)))
	repo := givenReaderRepository(t, odm.WithObservers(observers))
	ctx := context.Background()
	reader := core.NewReader("Grace Hopper", "grace@example.com")

	// act
	require.NoError(t, repo.Insert(ctx, reader))
	reader.Set("name", odm.StringValue("Grace B. Hopper"))
	require.NoError(t, repo.Update(ctx, reader))
	require.NoError(t, repo.Remove(ctx, reader))

	// assert
	assert.Equal(t, []string{"insert", "update", "remove"}, auditActions(spy))
	assert.True(t, spy.HasInfoLogWithMessage("audit trail recorded").WithDocumentID(string(reader.Identity())).Assert())
}

func Test_AuditLogObserver_WithNilLogger_StaysSilent(t *testing.T) {
	// setup
	observer := core.NewAuditLogObserver(nil)

	// act
	err := observer.AfterInsert(context.Background(), core.NewReader("Ada Lovelace", "ada@example.com"))

	// assert
	assert.NoError(t, err)
}

func givenReaderRepository(t *testing.T, options ...odm.Option) odm.Repository[core.Reader, *core.Reader] {
	t.Helper()

	repo, err := odm.NewRepository[core.Reader](memoryengine.NewStore(), core.CollectionReaders, options...)
	require.NoError(t, err)

	return repo
}

// auditActions extracts the action attribute from every audit log entry, in order.
func auditActions(spy *testdoubles.LogHandlerSpy) []string {
	var actions []string

	for _, record := range spy.GetRecords() {
		if record.Message != "audit trail recorded" {
			continue
		}

		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == "action" {
				actions = append(actions, attr.Value.String())
				return false
			}

			return true
		})
	}

	return actions
}

type steppingClock struct {
	current time.Time
}

func (c *steppingClock) Now() time.Time {
	return c.current
}

func (c *steppingClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
