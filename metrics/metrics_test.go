package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("x")))
}

func TestTrackQueryObserves(t *testing.T) {
	before := testutil.CollectAndCount(QueryLatency)
	TrackQuery("find", "metrics_test")()
	assert.Equal(t, before+1, testutil.CollectAndCount(QueryLatency))
}
