// Package hrdirectory is the client for the HR directory service, the
// source of truth for employee profiles and their assigned starting budgets.
package hrdirectory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/benefit-management/internal"
)

type Profile struct {
	ID        string                     `json:"id"`
	Name      string                     `json:"name"`
	Email     string                     `json:"email"`
	Team      string                     `json:"team"`
	Position  string                     `json:"position"`
	StartDate time.Time                  `json:"start_date"`
	Budgets   map[string]decimal.Decimal `json:"budgets"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetEmployee resolves a profile by employee id.
func (c *Client) GetEmployee(ctx context.Context, employeeID string) (*Profile, error) {
	url := fmt.Sprintf("%s/employees/%s", c.baseURL, employeeID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("hr directory request failed", "error", err, "employee_id", employeeID)
		return nil, errors.NewInternalError("hr directory unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.ErrEmployeeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("hr directory returned unexpected status",
			"status", resp.StatusCode,
			"employee_id", employeeID)
		return nil, errors.NewInternalError(
			fmt.Sprintf("hr directory returned status %d", resp.StatusCode), nil)
	}

	var apiResponse struct {
		Data Profile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewInternalError("failed to decode hr directory response", err)
	}

	return &apiResponse.Data, nil
}

// EmployeeBudgets returns the starting budgets the directory assigns per
// pool, used to seed the ledger on first touch.
func (c *Client) EmployeeBudgets(ctx context.Context, employeeID string) (map[string]decimal.Decimal, error) {
	profile, err := c.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return profile.Budgets, nil
}
