package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/query"
)

type memoryStore struct {
	saved   []Record
	saveErr error
}

func (m *memoryStore) Close(ctx context.Context) error        { return nil }
func (m *memoryStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *memoryStore) SaveRun(ctx context.Context, r Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *memoryStore) ListRuns(ctx context.Context, limit int) ([]Summary, error) {
	return nil, nil
}

func (m *memoryStore) GetRun(ctx context.Context, id string) (*Record, error) {
	return nil, ErrRunNotFound
}

func (m *memoryStore) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func TestFromRun(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	run := query.QueryRun{
		ID:       "run-1",
		Question: "List all methods in the 'UserService' class",
		Intent:   query.IntentLookup,
		Result:   query.RowsResult([]query.Row{{"m.name": "GetUser"}}),
		Attempts: []query.QueryAttempt{
			{Number: 1, Query: "MATCH (m:Method) RETURN m.nam", Status: query.AttemptFailed, ErrorMessage: "unknown property"},
			{Number: 2, Query: "MATCH (m:Method) RETURN m.name", Status: query.AttemptSucceeded},
		},
		StartedAt: started,
		Duration:  1200 * time.Millisecond,
	}

	record, err := FromRun(run)
	require.NoError(t, err)

	assert.Equal(t, "run-1", record.ID)
	assert.Equal(t, "lookup", record.Intent)
	assert.Equal(t, "rows", record.ResultKind)
	assert.Equal(t, time.UTC, record.StartedAt.Location())
	assert.True(t, record.StartedAt.Equal(started))
	assert.Equal(t, 1200*time.Millisecond, record.Duration)

	require.Len(t, record.Attempts, 2)
	assert.Equal(t, Attempt{Number: 1, Query: "MATCH (m:Method) RETURN m.nam", Status: "failed", Error: "unknown property"}, record.Attempts[0])
	assert.Equal(t, "success", record.Attempts[1].Status)

	var result map[string]any
	require.NoError(t, json.Unmarshal(record.Result, &result))
	assert.Equal(t, "rows", result["kind"])
}

func TestRecorder(t *testing.T) {
	t.Run("saves converted run", func(t *testing.T) {
		store := &memoryStore{}
		recorder := NewRecorder(store)

		err := recorder.Record(context.Background(), query.QueryRun{
			ID:       "run-2",
			Question: "What does it do?",
			Intent:   query.IntentUnknown,
			Result:   query.FailureResult(query.MsgCannotAnswer),
		})
		require.NoError(t, err)

		require.Len(t, store.saved, 1)
		assert.Equal(t, "failure", store.saved[0].ResultKind)
		assert.Equal(t, "unknown", store.saved[0].Intent)
		assert.Empty(t, store.saved[0].Attempts)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		boom := errors.New("disk full")
		recorder := NewRecorder(&memoryStore{saveErr: boom})

		err := recorder.Record(context.Background(), query.QueryRun{ID: "run-3"})
		assert.ErrorIs(t, err, boom)
	})
}
