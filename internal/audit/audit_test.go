package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSink struct{}

func (brokenSink) Write(context.Context, Entry) error { return errors.New("sink down") }

func TestRecorderFansOut(t *testing.T) {
	a, b := &MemorySink{}, &MemorySink{}
	var logs bytes.Buffer
	rec := NewRecorder(slog.New(slog.NewTextHandler(&logs, nil)), a, brokenSink{}, b)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return at }

	rec.Record(context.Background(), "ev1_u1", ActionReservationSubmit, nil)
	rec.Record(context.Background(), "ev1_u1", ActionReservationCancel, errors.New("db gone"))

	for _, sink := range []*MemorySink{a, b} {
		entries := sink.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, StatusSuccess, entries[0].Status)
		assert.Empty(t, entries[0].ErrorDetail)
		assert.Equal(t, StatusError, entries[1].Status)
		assert.Equal(t, "db gone", entries[1].ErrorDetail)
		assert.True(t, entries[0].At.Equal(at))
		assert.NotEqual(t, entries[0].ID, entries[1].ID)
	}
	// Both sinks saw the same entry.
	assert.Equal(t, a.Entries()[0].ID, b.Entries()[0].ID)
	assert.Contains(t, logs.String(), "audit sink failed")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), "x", ActionSurveySubmit, nil)
	})
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, sink.Write(context.Background(), Entry{
		ID: "a1", OperationID: "u1", Action: ActionAccountWithdraw, Status: StatusError, ErrorDetail: "boom",
	}))
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "action=account.withdraw")
	assert.Contains(t, out, "error_detail=boom")
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "reservation.submit.error", RoutingKey(Entry{Action: ActionReservationSubmit, Status: StatusError}))
	assert.Equal(t, "survey.submit.success", RoutingKey(Entry{Action: ActionSurveySubmit, Status: StatusSuccess}))
}
