package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})

	cases := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid", "secret", "Bearer secret", http.StatusOK},
		{"wrong", "secret", "Bearer nope", http.StatusForbidden},
		{"missing", "secret", "", http.StatusForbidden},
		{"endpoint closed", "", "Bearer ", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			MetricsAuth(tc.token)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Action("cart_add")
	m.Action("cart_add")
	m.SoftFailure("cart")

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			got[f.GetName()+"/"+metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, got["storefront_actions_total/cart_add"])
	assert.Equal(t, 1.0, got["storefront_store_soft_failures_total/cart"])

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.Action("cart_add")
		nilMetrics.SoftFailure("cart")
	})
}
