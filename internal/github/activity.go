package github

import (
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/contribot/contribot/internal/models"
)

// calendarQuery mirrors the contributionCalendar shape of the GraphQL API:
// a year of daily counts grouped into weeks.
type calendarQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				Weeks []struct {
					ContributionDays []struct {
						ContributionCount githubv4.Int
						Date              githubv4.String
					}
				}
			}
		}
	} `graphql:"user(login: $login)"`
}

func (c *Client) fetchCalendar(ctx context.Context, login string) (*calendarQuery, error) {
	var q calendarQuery
	vars := map[string]interface{}{
		"login": githubv4.String(login),
	}
	if err := c.v4.Query(ctx, &q, vars); err != nil {
		return nil, fmt.Errorf("failed to query contribution calendar: %v", err)
	}
	return &q, nil
}

// TodayCount returns the number of contributions recorded for the current
// calendar day in the configured timezone. The per-day date field is
// matched by string equality; an event-list heuristic is deliberately not
// used, it miscounts around day boundaries.
func (c *Client) TodayCount(ctx context.Context, login string) (int, error) {
	q, err := c.fetchCalendar(ctx, login)
	if err != nil {
		return 0, err
	}

	today := time.Now().In(c.loc).Format("2006-01-02")
	count := 0
	for _, week := range q.User.ContributionsCollection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			if string(day.Date) == today {
				count += int(day.ContributionCount)
			}
		}
	}
	return count, nil
}

// ActivityGrid returns the full contribution calendar reshaped into a
// week-major grid.
func (c *Client) ActivityGrid(ctx context.Context, login string) (models.ActivityGrid, error) {
	q, err := c.fetchCalendar(ctx, login)
	if err != nil {
		return nil, err
	}

	weeks := q.User.ContributionsCollection.ContributionCalendar.Weeks
	grid := make(models.ActivityGrid, 0, len(weeks))
	for _, week := range weeks {
		days := make([]int, 0, len(week.ContributionDays))
		for _, day := range week.ContributionDays {
			days = append(days, int(day.ContributionCount))
		}
		grid = append(grid, days)
	}
	return grid, nil
}
