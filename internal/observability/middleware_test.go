package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/nrppa/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestObserverLogsAndCounts(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.ReleaseMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestObserver("observer-test", zerolog.New(&buf).Level(zerolog.InfoLevel)))
	r.GET("/trps", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func(path string) {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	serve("/trps")
	serve("/health")
	serve("/nope")

	out := buf.String()
	require.Contains(t, out, `"component":"observer-test"`)
	require.Contains(t, out, `"route":"/trps"`)
	require.Contains(t, out, `"route":"unmatched","path":"/nope","status":404`)
	require.NotContains(t, out, `"route":"/health"`, "polled routes log at debug")

	RegisterMetrics()
	require.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("observer-test", "GET", "unmatched", "404")))
	require.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("observer-test", "GET", "/health", "200")))
}
