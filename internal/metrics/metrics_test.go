package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionObserverCounts(t *testing.T) {
	c := New()
	o := c.Connection("plc-1")

	o.Observe("read_coils", 3*time.Millisecond, nil)
	o.Observe("read_coils", 4*time.Millisecond, nil)
	o.Observe("read_coils", time.Second, errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.exchanges.WithLabelValues("plc-1", "read_coils", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exchanges.WithLabelValues("plc-1", "read_coils", StatusFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.latency))
}

func TestSetUnitStatus(t *testing.T) {
	c := New()
	c.SetUnitStatus("meter", 2, 4, 17)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.health.WithLabelValues("meter")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.lastErrorCode.WithLabelValues("meter")))
	assert.Equal(t, 17.0, testutil.ToFloat64(c.secondsInError.WithLabelValues("meter")))
}

func TestHandlerServesRegistry(t *testing.T) {
	c := New()
	c.Connection("plc-1").Observe("write_single_register", time.Millisecond, nil)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mbsync_exchanges_total{connection="plc-1",op="write_single_register",status="success"} 1`)
}
