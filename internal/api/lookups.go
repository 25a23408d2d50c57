package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/coreterra/internal/models"
)

// Read-mostly collections: calendar, contexts, teams and reports.

type CalendarClient struct{ c *Client }

func (c *Client) Calendar() *CalendarClient { return &CalendarClient{c: c} }

func (cc *CalendarClient) Events(ctx context.Context) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	if err := cc.c.do(ctx, "calendar.events", http.MethodGet, "/api/calendar/events", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type ContextsClient struct{ c *Client }

func (c *Client) Contexts() *ContextsClient { return &ContextsClient{c: c} }

func (cc *ContextsClient) List(ctx context.Context) ([]models.Context, error) {
	var out []models.Context
	if err := cc.c.do(ctx, "contexts.list", http.MethodGet, "/api/contexts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cc *ContextsClient) ScheduledCategories(ctx context.Context) ([]models.ScheduledCategory, error) {
	var out []models.ScheduledCategory
	if err := cc.c.do(ctx, "contexts.scheduled", http.MethodGet, "/api/contexts/scheduled/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type TeamsClient struct{ c *Client }

func (c *Client) Teams() *TeamsClient { return &TeamsClient{c: c} }

func (t *TeamsClient) Members(ctx context.Context) ([]models.TeamMember, error) {
	var out []models.TeamMember
	if err := t.c.do(ctx, "teams.list", http.MethodGet, "/api/teams", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type ReportsClient struct{ c *Client }

func (c *Client) Reports() *ReportsClient { return &ReportsClient{c: c} }

// List returns reports, optionally only of one type (daily, weekly, monthly)
func (r *ReportsClient) List(ctx context.Context, reportType string) ([]models.Report, error) {
	var q url.Values
	if reportType != "" {
		q = url.Values{"type": {reportType}}
	}
	var out []models.Report
	if err := r.c.do(ctx, "reports.list", http.MethodGet, "/api/reports", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Daily returns the latest daily report, or nil when there is none
func (r *ReportsClient) Daily(ctx context.Context) (*models.Report, error) {
	var out *models.Report
	if err := r.c.do(ctx, "reports.daily", http.MethodGet, "/api/reports/daily", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
