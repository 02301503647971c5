// Package dashboard implements the appointment polling and change-detection
// engine behind the operator lead dashboard: an API client, a cursor-based
// change detector, a notification dispatcher, an adaptive polling scheduler
// and a filtered view controller, coordinated by a Watcher with an explicit
// Start/Stop lifecycle.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinicops/leadwatch/pkg/logging"
)

// Client is an HTTP client for the practice website's dashboard API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithToken sets a bearer token attached to every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a dashboard API client.
// baseURL is the website backend (e.g. "https://clinic.example.com").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchDashboardData retrieves the stats summary and the appointment list.
// The two requests are issued concurrently and both must succeed before the
// combined result is returned; a failure on either abandons the whole cycle
// so callers never see a partial overwrite. A 401 from either endpoint is
// reported as ErrUnauthorized.
//
// isPolling marks a background refresh as opposed to an operator-initiated
// load; it only affects logging here. Change-detection gating is the
// Watcher's concern.
func (c *Client) FetchDashboardData(ctx context.Context, isPolling bool) (*DashboardData, error) {
	var data DashboardData

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := c.fetchStats(ctx)
		if err != nil {
			return err
		}
		data.Stats = *stats
		return nil
	})
	g.Go(func() error {
		appts, err := c.fetchAppointments(ctx)
		if err != nil {
			return err
		}
		data.Appointments = appts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if isPolling {
		c.logger.Debug("dashboard refreshed", "appointments", len(data.Appointments))
	} else {
		c.logger.Info("dashboard loaded", "appointments", len(data.Appointments), "total", data.Stats.TotalAppointments)
	}
	return &data, nil
}

func (c *Client) fetchStats(ctx context.Context) (*Stats, error) {
	var envelope struct {
		Stats Stats `json:"stats"`
	}
	if err := c.get(ctx, "/api/dashboard/stats", &envelope); err != nil {
		return nil, err
	}
	return &envelope.Stats, nil
}

func (c *Client) fetchAppointments(ctx context.Context) ([]Appointment, error) {
	var envelope struct {
		Appointments []Appointment `json:"appointments"`
	}
	if err := c.get(ctx, "/api/dashboard/appointments", &envelope); err != nil {
		return nil, err
	}
	return envelope.Appointments, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("dashboard: create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard: request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("dashboard: %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("dashboard: decode %s response: %w", path, err)
	}
	return nil
}

// UpdateStatus persists a status change for a single appointment.
// Only the response status code is consulted.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	body, err := json.Marshal(map[string]Status{"status": status})
	if err != nil {
		return fmt.Errorf("dashboard: marshal status update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/api/dashboard/appointments/"+id, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dashboard: create status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard: status update failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("dashboard: status update returned status %d", resp.StatusCode)
	}

	c.logger.Info("appointment status updated", "id", id, "status", status)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
