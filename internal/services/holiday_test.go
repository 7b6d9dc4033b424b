package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHolidaysForYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/feriados/v1/2026" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date": "2026-01-01", "name": "Confraternização mundial", "type": "national"},
			{"date": "2026-04-21", "name": "Tiradentes", "type": "national"},
			{"date": "not-a-date", "name": "broken entry", "type": "national"}
		]`))
	}))
	defer server.Close()

	svc := &HolidayService{
		baseURL: server.URL,
		client:  server.Client(),
	}

	dates, err := svc.HolidaysForYear(context.Background(), 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("got %d dates; want 2 (unparseable entries skipped)", len(dates))
	}
	want := time.Date(2026, time.April, 21, 0, 0, 0, 0, time.UTC)
	if !dates[1].Equal(want) {
		t.Errorf("dates[1] = %v; want %v", dates[1], want)
	}
}

func TestHolidaysForYearFailsOpen(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "upstream error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			svc := &HolidayService{
				baseURL: server.URL,
				client:  server.Client(),
			}

			dates, err := svc.HolidaysForYear(context.Background(), 2026)
			if err != nil {
				t.Fatalf("lookup must fail open, got error: %v", err)
			}
			if len(dates) != 0 {
				t.Errorf("expected no holidays on failure, got %d", len(dates))
			}
		})
	}
}

func TestHolidaysForYearUnreachable(t *testing.T) {
	svc := &HolidayService{
		baseURL: "http://127.0.0.1:1",
		client:  &http.Client{Timeout: 200 * time.Millisecond},
	}

	dates, err := svc.HolidaysForYear(context.Background(), 2026)
	if err != nil {
		t.Fatalf("lookup must fail open, got error: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("expected no holidays when the calendar is unreachable, got %d", len(dates))
	}
}
