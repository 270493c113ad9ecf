package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/scans/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", m.Exporter())

	t.Run("counts requests by route pattern", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/scans/abc", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		}

		fam := findMetric(t, reg, "http_requests_total")
		require.NotNil(t, fam)
		require.Len(t, fam.GetMetric(), 1)

		metric := fam.GetMetric()[0]
		assert.Equal(t, float64(3), metric.GetCounter().GetValue())

		labels := map[string]string{}
		for _, l := range metric.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, "GET", labels["method"])
		assert.Equal(t, "/scans/:id", labels["path"])
		assert.Equal(t, "200", labels["status"])
	})

	t.Run("observes request duration", func(t *testing.T) {
		fam := findMetric(t, reg, "http_request_duration_seconds")
		require.NotNil(t, fam)
		assert.NotZero(t, fam.GetMetric()[0].GetHistogram().GetSampleCount())
	})

	t.Run("metrics endpoint is excluded from counting", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "http_requests_total")
		assert.NotContains(t, string(body), `path="/metrics"`)
	})

	t.Run("double registration fails", func(t *testing.T) {
		_, err := NewPrometheusMiddleware(reg)
		assert.Error(t, err)
	})
}
