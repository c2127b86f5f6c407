package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordsRequests(t *testing.T) {
	h := Metrics(nil, time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/pot", http.MethodGet, "418"))

	req := httptest.NewRequest(http.MethodGet, "/pot", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if got := rec.Body.String(); got != "short and stout" {
		t.Fatalf("body = %q", got)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/pot", http.MethodGet, "418"))
	if after != before+1 {
		t.Fatalf("requests counter = %v, want %v", after, before+1)
	}
	if inFlight := testutil.ToFloat64(httpInFlight.WithLabelValues("/pot", http.MethodGet)); inFlight != 0 {
		t.Fatalf("in-flight gauge = %v after request finished, want 0", inFlight)
	}
}

func TestMetricsDefaultStatus(t *testing.T) {
	h := Metrics(nil, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/ok", http.MethodGet, "200"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/ok", http.MethodGet, "200"))
	if after != before+1 {
		t.Fatalf("requests counter = %v, want %v", after, before+1)
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{
		101: "1xx",
		204: "2xx",
		302: "3xx",
		404: "4xx",
		503: "5xx",
	}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
