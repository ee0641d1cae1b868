package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(TablesParsed)
	TablesParsed.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(TablesParsed))

	diag := CellDiagnostics.WithLabelValues(ReasonEnumParse)
	before = testutil.ToFloat64(diag)
	diag.Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(diag))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	d := ObserveStage("parse", "test", timer)
	assert.GreaterOrEqual(t, d, time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), d)
}
