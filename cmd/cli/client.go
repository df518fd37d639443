package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/pkg/logger"
)

// apiClient talks to the course-extract server
type apiClient struct {
	client *resty.Client
}

type apiError struct {
	Error string `json:"error"`
}

type runDetailView struct {
	domain.Run
	Items []domain.RunItem `json:"items"`
}

type logsView struct {
	Entries []logger.LogEntry `json:"entries"`
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
	}
}

func (c *apiClient) get(path string, query map[string]string, out interface{}) error {
	req := c.client.R().SetError(&apiError{})
	if query != nil {
		req.SetQueryParams(query)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Get(path)
	return checkResponse(resp, err)
}

func (c *apiClient) post(path string, body, out interface{}) error {
	req := c.client.R().SetError(&apiError{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	return checkResponse(resp, err)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode(), e.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode())
	}
	return nil
}
