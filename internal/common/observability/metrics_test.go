package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoop_RecordsNothing(t *testing.T) {
	o := NewNoop()

	ctx, span := o.StartSpan(context.Background(), "order.plan", attribute.String("platform", "Yelp"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.IsRecording())
	assert.NotPanics(t, func() {
		o.RecordOrderProcessed(ctx, "ok")
		o.RecordOrderDuration(ctx, 120*time.Millisecond, "ok")
		o.Shutdown()
	})
}

func TestNilObservability(t *testing.T) {
	var o *Observability

	_, span := o.StartSpan(context.Background(), "order.search")
	span.End()

	assert.NotPanics(t, func() {
		o.RecordOrderProcessed(context.Background(), "error")
		o.RecordOrderDuration(context.Background(), time.Second, "error")
		o.Shutdown()
	})
}

func TestNew_RecordsSpans(t *testing.T) {
	o := New("autoshopper-test")
	defer o.Shutdown()

	_, span := o.StartSpan(context.Background(), "order.extract_constraints")
	defer span.End()

	assert.True(t, span.IsRecording())
	assert.True(t, span.SpanContext().IsValid())
	o.RecordOrderProcessed(context.Background(), "ok")
}
