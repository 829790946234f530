package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestReservationSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t)
	f.seedEvent(t, "ev1", 1, 0)
	ctx := context.Background()

	_, err := f.reservations.SubmitReservation(ctx, "ev1", "u1", general(0))
	require.NoError(t, err)
	_, err = f.reservations.SubmitReservation(ctx, "ev1", "u2", general(0))
	require.ErrorIs(t, err, ErrCapacityExceeded)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "reservation.submit", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
