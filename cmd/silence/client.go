package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kalambet/silence/internal/catalog"
	"github.com/kalambet/silence/internal/config"
)

type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

var newAPIClient = func() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &apiClient{
		baseURL:    cfg.Server.BaseURL(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is silence running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *apiClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *apiClient) listIncidents(ctx context.Context) ([]catalog.View, error) {
	resp, err := c.get(ctx, "/incidents")
	if err != nil {
		return nil, err
	}
	var views []catalog.View
	if err := decodeJSON(resp, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *apiClient) getIncident(ctx context.Context, index int) (catalog.View, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/incidents/%d", index))
	if err != nil {
		return catalog.View{}, err
	}
	var v catalog.View
	if err := decodeJSON(resp, &v); err != nil {
		return catalog.View{}, err
	}
	return v, nil
}

func (c *apiClient) submitAnswer(ctx context.Context, index int, choice string) (catalog.AnswerResult, error) {
	resp, err := c.post(ctx, fmt.Sprintf("/incidents/%d/answer", index), map[string]string{"choice": choice})
	if err != nil {
		return catalog.AnswerResult{}, err
	}
	var res catalog.AnswerResult
	if err := decodeJSON(resp, &res); err != nil {
		return catalog.AnswerResult{}, err
	}
	return res, nil
}

func (c *apiClient) health(ctx context.Context) (int, error) {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return 0, err
	}
	var body struct {
		Status    string `json:"status"`
		Incidents int    `json:"incidents"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return 0, err
	}
	return body.Incidents, nil
}

// decodeJSON decodes a success body into v, or turns an error response into
// an error carrying the server's detail message.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		var envelope struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Detail != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, envelope.Detail)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
