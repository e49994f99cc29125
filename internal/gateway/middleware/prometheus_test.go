package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware_LabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := PrometheusMiddleware(mux)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /items/{id}", "200"))
	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/items/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /items/{id}", "200"))
	assert.Equal(t, 3.0, after-before)

	before = testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))-before)
}

func TestPrometheusMiddleware_DifferentStatusCodes(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
	}{
		{"success_200", http.StatusOK},
		{"created_201", http.StatusCreated},
		{"bad_request_400", http.StatusBadRequest},
		{"not_found_404", http.StatusNotFound},
		{"server_error_500", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			rec := httptest.NewRecorder()
			PrometheusMiddleware(nextHandler).ServeHTTP(rec, httptest.NewRequest("GET", "/api/endpoint", nil))

			assert.Equal(t, tc.statusCode, rec.Code)
		})
	}
}

func TestPrometheusMiddleware_Hijack(t *testing.T) {
	hijacked := make(chan bool, 1)
	srv := httptest.NewServer(PrometheusMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := w.(http.Hijacker)
		if !ok {
			hijacked <- false
			return
		}
		conn, _, err := h.Hijack()
		if err == nil {
			conn.Close()
		}
		hijacked <- err == nil
	})))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err == nil {
		resp.Body.Close()
	}
	require.True(t, <-hijacked)

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err = rw.Hijack()
	assert.Error(t, err)
}
