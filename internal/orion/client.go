package orion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/employeevirtual/backend/pkg/circuitbreaker"
	"github.com/employeevirtual/backend/pkg/logger"
	"github.com/employeevirtual/backend/pkg/retry"
)

// Client talks to the Orion file gateway: the data lake object store plus
// the OCR/transcription/document-analysis processing endpoints in front
// of it. Everything here is a plain JSON-over-HTTP collaborator.
type Client struct {
	baseURL     string
	apiKey      string
	bucket      string
	httpClient  *http.Client
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

type StoredObject struct {
	Bucket    string
	ObjectKey string
	URL       string
	Size      int64
}

type ProcessResult struct {
	Status     string
	StatusCode int
	Output     map[string]any
}

func NewClient(baseURL, apiKey, bucket string, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	cb := circuitbreaker.NewCircuitBreaker("orion", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		cb: cb,
		retryConfig: retry.Config{
			MaxAttempts:    3,
			InitialDelay:   300 * time.Millisecond,
			MaxDelay:       3 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
		},
	}
}

// StoreObject uploads raw file content into the data lake and returns the
// URL-addressable location Orion assigned to it.
func (c *Client) StoreObject(ctx context.Context, objectKey string, content []byte, contentType string) (*StoredObject, error) {
	endpoint := fmt.Sprintf("%s/v1/lake/%s/%s", c.baseURL, c.bucket, objectKey)

	var stored *StoredObject

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(content))
			if err != nil {
				return fmt.Errorf("failed to build upload request: %w", err)
			}
			req.Header.Set("Content-Type", contentType)
			c.authorize(req)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to upload object: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("data lake upload returned status %d", resp.StatusCode)
			}

			var body struct {
				URL string `json:"url"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && err != io.EOF {
				return fmt.Errorf("failed to decode upload response: %w", err)
			}
			if body.URL == "" {
				body.URL = endpoint
			}

			stored = &StoredObject{
				Bucket:    c.bucket,
				ObjectKey: objectKey,
				URL:       body.URL,
				Size:      int64(len(content)),
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Object stored in data lake",
		zap.String("bucket", stored.Bucket),
		zap.String("object_key", stored.ObjectKey),
		zap.Int64("size", stored.Size),
	)

	return stored, nil
}

// ProcessFile asks the Orion gateway to run one processing kind (ocr,
// transcription, document_analysis) over an already-stored object.
func (c *Client) ProcessFile(ctx context.Context, fileURL, kind string) (*ProcessResult, error) {
	endpoint := c.baseURL + "/v1/process"

	payload, err := json.Marshal(map[string]string{
		"url":  fileURL,
		"kind": kind,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal process request: %w", err)
	}

	var result *ProcessResult

	err = c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("failed to build process request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			c.authorize(req)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to call orion: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read orion response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("orion returned status %d", resp.StatusCode)
			}

			var decoded struct {
				Status string         `json:"status"`
				Output map[string]any `json:"output"`
			}
			if err := json.Unmarshal(body, &decoded); err != nil {
				return fmt.Errorf("failed to decode orion response: %w", err)
			}
			if decoded.Status == "" {
				decoded.Status = "completed"
			}

			result = &ProcessResult{
				Status:     decoded.Status,
				StatusCode: resp.StatusCode,
				Output:     decoded.Output,
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Orion processing finished",
		zap.String("kind", kind),
		zap.String("status", result.Status),
	)

	return result, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
