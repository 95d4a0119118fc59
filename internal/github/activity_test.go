package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func calendarBody(days ...string) string {
	return fmt.Sprintf(`{"data":{"user":{"contributionsCollection":{"contributionCalendar":{"weeks":[{"contributionDays":[%s]}]}}}}}`,
		joinDays(days))
}

func joinDays(days []string) string {
	out := ""
	for i, d := range days {
		if i > 0 {
			out += ","
		}
		out += d
	}
	return out
}

func day(date string, count int) string {
	return fmt.Sprintf(`{"contributionCount":%d,"date":%q}`, count, date)
}

func newTestClient(t *testing.T, loc *time.Location, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClientForEndpoint(srv.URL, srv.Client(), loc)
}

func TestTodayCountMatchesDateString(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Now().In(loc)
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	c := newTestClient(t, loc, http.StatusOK, calendarBody(
		day(yesterday, 9),
		day(today, 5),
		day(tomorrow, 2),
	))

	count, err := c.TodayCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("TodayCount: %v", err)
	}
	if count != 5 {
		t.Fatalf("count = %d, want 5 (only the matching date)", count)
	}
}

func TestTodayCountNoMatchingDay(t *testing.T) {
	loc := time.UTC
	c := newTestClient(t, loc, http.StatusOK, calendarBody(
		day("2001-01-01", 7),
	))

	count, err := c.TodayCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("TodayCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestActivityGridReshape(t *testing.T) {
	body := `{"data":{"user":{"contributionsCollection":{"contributionCalendar":{"weeks":[` +
		`{"contributionDays":[` + day("2025-01-05", 1) + `,` + day("2025-01-06", 0) + `]},` +
		`{"contributionDays":[` + day("2025-01-12", 3) + `]}` +
		`]}}}}}`
	c := newTestClient(t, time.UTC, http.StatusOK, body)

	grid, err := c.ActivityGrid(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ActivityGrid: %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("got %d weeks, want 2", len(grid))
	}
	if len(grid[0]) != 2 || grid[0][0] != 1 || grid[0][1] != 0 {
		t.Fatalf("week 0 = %v, want [1 0]", grid[0])
	}
	if len(grid[1]) != 1 || grid[1][0] != 3 {
		t.Fatalf("week 1 = %v, want [3]", grid[1])
	}
	if grid.IsEmpty() {
		t.Fatal("grid with activity reported empty")
	}
}

func TestFetchErrorsPropagate(t *testing.T) {
	c := newTestClient(t, time.UTC, http.StatusBadGateway, `upstream broke`)

	if _, err := c.TodayCount(context.Background(), "alice"); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
	if _, err := c.ActivityGrid(context.Background(), "alice"); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
