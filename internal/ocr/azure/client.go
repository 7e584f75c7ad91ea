package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contadoc-backend/internal/ocr"
)

const (
	analyzePath  = "/documentintelligence/documentModels/prebuilt-read:analyze?api-version=2024-11-30"
	pollInterval = 2 * time.Second
)

// Client implements ocr.Extractor against Azure Document Intelligence's
// prebuilt-read model.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs an Azure Document Intelligence client. Endpoint and
// key are required; the zero timeout falls back to two minutes.
func NewClient(endpoint, apiKey string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" || strings.TrimSpace(apiKey) == "" {
		return nil, ocr.ErrUnavailable
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type analyzeResult struct {
	Status        string `json:"status"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	AnalyzeResult *struct {
		Content string `json:"content"`
	} `json:"analyzeResult,omitempty"`
}

// Extract submits the document for analysis and polls the returned operation
// until it settles, returning the recognized text content.
func (c *Client) Extract(ctx context.Context, pdfBytes []byte) (string, error) {
	opURL, err := c.submit(ctx, pdfBytes)
	if err != nil {
		return "", err
	}
	return c.poll(ctx, opURL)
}

func (c *Client) submit(ctx context.Context, pdfBytes []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+analyzePath, bytes.NewReader(pdfBytes))
	if err != nil {
		return "", &ocr.FailureError{Op: "submit", Err: err}
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ocr.FailureError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ocr.FailureError{Op: "submit", Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", &ocr.FailureError{Op: "submit", Err: fmt.Errorf("missing Operation-Location header")}
	}
	return opURL, nil
}

func (c *Client) poll(ctx context.Context, opURL string) (string, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", &ocr.FailureError{Op: "poll", Err: ctx.Err()}
		case <-ticker.C:
		}

		result, err := c.fetchResult(ctx, opURL)
		if err != nil {
			return "", err
		}

		switch result.Status {
		case "succeeded":
			if result.AnalyzeResult == nil {
				return "", &ocr.FailureError{Op: "poll", Err: fmt.Errorf("succeeded without analyzeResult")}
			}
			return result.AnalyzeResult.Content, nil
		case "failed":
			msg := "analysis failed"
			if result.Error != nil {
				msg = result.Error.Code + ": " + result.Error.Message
			}
			return "", &ocr.FailureError{Op: "analyze", Err: fmt.Errorf("%s", msg)}
		case "notStarted", "running":
			// keep polling
		default:
			return "", &ocr.FailureError{Op: "poll", Err: fmt.Errorf("unexpected status %q", result.Status)}
		}
	}
}

func (c *Client) fetchResult(ctx context.Context, opURL string) (analyzeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return analyzeResult{}, &ocr.FailureError{Op: "poll", Err: err}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return analyzeResult{}, &ocr.FailureError{Op: "poll", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return analyzeResult{}, &ocr.FailureError{Op: "poll", Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var result analyzeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return analyzeResult{}, &ocr.FailureError{Op: "poll", Err: err}
	}
	return result, nil
}

var _ ocr.Extractor = (*Client)(nil)
