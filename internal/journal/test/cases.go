package test

import (
	"context"
	"testing"

	"github.com/markuphq/markup/internal/journal"
	"github.com/markuphq/markup/internal/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name string
	run  func(t *testing.T, store journal.Store)
}

func (c *testCase) Run(t *testing.T, store journal.Store) {
	t.Run(c.name, func(t *testing.T) {
		c.run(t, store)
	})
}

func record(id string, state journal.State) *journal.Record {
	return &journal.Record{
		ID:        id,
		Step:      "transfers",
		Kind:      operation.KindTransferRun,
		HandleID:  "projects/p/locations/us/transferConfigs/" + id,
		Name:      "Merchant Center Transfer - 1234",
		State:     state,
		CreatedOn: 1,
		UpdatedOn: 1,
	}
}

var TestCases = []*testCase{
	{
		name: "InsertAndGet",
		run: func(t *testing.T, store journal.Store) {
			ctx := context.Background()
			r := record("a", journal.Waiting)

			require.NoError(t, store.Insert(ctx, r))

			got, err := store.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, r, got)
		},
	},
	{
		name: "Update",
		run: func(t *testing.T, store journal.Store) {
			ctx := context.Background()
			r := record("b", journal.Waiting)
			require.NoError(t, store.Insert(ctx, r))

			r.State = journal.TimedOut
			r.Attempts = 200
			r.Reason = "still RUNNING"
			r.UpdatedOn = 2
			require.NoError(t, store.Update(ctx, r))

			got, err := store.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, journal.TimedOut, got.State)
			assert.Equal(t, 200, got.Attempts)
			assert.Equal(t, "still RUNNING", got.Reason)
			assert.Equal(t, int64(2), got.UpdatedOn)
			assert.Equal(t, int64(1), got.CreatedOn)
		},
	},
	{
		name: "UpdateMissing",
		run: func(t *testing.T, store journal.Store) {
			err := store.Update(context.Background(), record("missing", journal.Failed))
			assert.ErrorIs(t, err, journal.ErrNotFound)
		},
	},
	{
		name: "GetMissing",
		run: func(t *testing.T, store journal.Store) {
			_, err := store.Get(context.Background(), "missing")
			assert.ErrorIs(t, err, journal.ErrNotFound)
		},
	},
	{
		name: "ListNewestFirst",
		run: func(t *testing.T, store journal.Store) {
			ctx := context.Background()
			for _, id := range []string{"c", "d", "e"} {
				require.NoError(t, store.Insert(ctx, record(id, journal.Succeeded)))
			}

			records, err := store.List(ctx, 2)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "e", records[0].ID)
			assert.Equal(t, "d", records[1].ID)
		},
	},
}
