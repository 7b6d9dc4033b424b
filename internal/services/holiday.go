package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// HolidayService fetches Brazilian public holidays from BrasilAPI.
// Responses are cached per year in Redis. The reservation validator
// must never block on this collaborator, so lookups fail open: any
// error reads as "no holidays".
type HolidayService struct {
	baseURL string
	client  *http.Client
	cache   *RedisCache
}

func NewHolidayService(cache *RedisCache) *HolidayService {
	url := os.Getenv("HOLIDAY_API_BASE_URL")
	if url == "" {
		url = "https://brasilapi.com.br"
	}
	return &HolidayService{
		baseURL: url,
		client:  &http.Client{Timeout: 3 * time.Second},
		cache:   cache,
	}
}

type holidayEntry struct {
	Date string `json:"date"` // "2006-01-02"
	Name string `json:"name"`
	Type string `json:"type"`
}

// HolidaysForYear returns the national holidays of the given year as
// UTC-midnight dates. On any transport, decode, or upstream error it
// returns an empty slice and a nil error.
func (s *HolidayService) HolidaysForYear(ctx context.Context, year int) ([]time.Time, error) {
	fetch := func() ([]holidayEntry, error) {
		return s.fetchYear(ctx, year)
	}

	var entries []holidayEntry
	var err error
	if s.cache != nil {
		key := fmt.Sprintf("holidays:%d", year)
		entries, err = GetOrSet(s.cache, ctx, key, 24*time.Hour, fetch)
	} else {
		entries, err = fetch()
	}
	if err != nil {
		log.Printf("holiday lookup failed for %d, treating as none: %v", year, err)
		return nil, nil
	}

	dates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		d, parseErr := time.ParseInLocation("2006-01-02", e.Date, time.UTC)
		if parseErr != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (s *HolidayService) fetchYear(ctx context.Context, year int) ([]holidayEntry, error) {
	url := fmt.Sprintf("%s/api/feriados/v1/%d", s.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var entries []holidayEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return entries, nil
}
