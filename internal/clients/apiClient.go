package clients

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	"github.com/RobsonDevCode/deepguard/internal/clients/models"
	"github.com/RobsonDevCode/deepguard/internal/configuration"
	domain "github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type APIClientService interface {
	Test(ctx context.Context, tree domain.DependencyTree) (domain.TestResult, error)
	TestPackage(ctx context.Context, name string) (domain.TestResult, error)
	Monitor(ctx context.Context, request domain.SnapshotRequest) (domain.SnapshotResult, error)
	Watch(ctx context.Context, request domain.WatchRequest) (domain.WatchResult, error)
	DownloadPatch(ctx context.Context, patchUrl string) ([]byte, error)
}

type APIClient struct {
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	baseUrl *url.URL
	token   string
	logger  *zap.Logger
}

func NewAPIClient(config *configuration.Config, logger *zap.Logger) (*APIClient, error) {
	client := &http.Client{
		Timeout: config.Timeout(),
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	cbSettings := gobreaker.Settings{
		Name:        "deepguard-api",
		MaxRequests: 5,
		Interval:    3 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// the api answering with a 4xx is not a reason to stop calling it
			if apiErr, ok := err.(*clierrors.APIError); ok {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	}

	baseUrl, err := url.Parse(config.API)
	if err != nil {
		return nil, fmt.Errorf("error parsing api url, %w", err)
	}

	return &APIClient{
		client:  client,
		cb:      gobreaker.NewCircuitBreaker(cbSettings),
		baseUrl: forceHTTPS(baseUrl),
		token:   config.Token,
		logger:  logger,
	}, nil
}

func (c *APIClient) Test(ctx context.Context, tree domain.DependencyTree) (domain.TestResult, error) {
	var result domain.TestResult
	endpoint := c.baseUrl.JoinPath("vuln", "npm").String()

	if err := c.send(ctx, http.MethodPost, endpoint, tree, &result, http.StatusOK); err != nil {
		return domain.TestResult{}, err
	}

	c.logger.Debug("test response",
		zap.Bool("ok", result.Ok),
		zap.Int("vulnerabilities", len(result.Vulnerabilities)))

	return result, nil
}

// TestPackage tests a package published on npm by name, for example
// lodash@4.17.4 or @scope/pkg.
func (c *APIClient) TestPackage(ctx context.Context, name string) (domain.TestResult, error) {
	var result domain.TestResult
	endpoint := c.baseUrl.JoinPath("vuln", "npm").String() + "/" + url.PathEscape(name)

	if err := c.send(ctx, http.MethodGet, endpoint, nil, &result, http.StatusOK); err != nil {
		return domain.TestResult{}, err
	}

	return result, nil
}

func (c *APIClient) Watch(ctx context.Context, request domain.WatchRequest) (domain.WatchResult, error) {
	var result domain.WatchResult
	endpoint := c.baseUrl.JoinPath("watch").String() + "/"

	var body interface{}
	if request.Package != "" {
		endpoint += url.PathEscape(request.Package)
	} else {
		body = request.Manifest
	}

	if err := c.send(ctx, http.MethodPost, endpoint, body, &result, http.StatusOK); err != nil {
		return domain.WatchResult{}, err
	}

	return result, nil
}

func (c *APIClient) Monitor(ctx context.Context, request domain.SnapshotRequest) (domain.SnapshotResult, error) {
	var result domain.SnapshotResult
	endpoint := c.baseUrl.JoinPath("monitor", "npm").String()

	if err := c.send(ctx, http.MethodPut, endpoint, request, &result, http.StatusOK, http.StatusCreated); err != nil {
		return domain.SnapshotResult{}, err
	}

	return result, nil
}

func (c *APIClient) DownloadPatch(ctx context.Context, patchUrl string) ([]byte, error) {
	cbResult, err := c.cb.Execute(func() (interface{}, error) {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, patchUrl, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create http request: %w", err)
		}

		response, err := c.client.Do(request)
		if err != nil {
			return nil, fmt.Errorf("client response error: %w", err)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			return nil, handleClientError(response)
		}

		return io.ReadAll(response.Body)
	})
	if err != nil {
		return nil, err
	}

	diff, ok := cbResult.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response type when converting response")
	}

	return diff, nil
}

// send gzips body upstream, when there is one, and decodes the JSON response
// into out.
func (c *APIClient) send(ctx context.Context, method string, endpoint string, body interface{}, out interface{}, accepted ...int) error {
	var payload []byte
	if body != nil {
		compressed, err := compress(body)
		if err != nil {
			return err
		}
		payload = compressed
	}

	_, err := c.cb.Execute(func() (interface{}, error) {
		request, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create http request: %w", err)
		}

		request.Header.Set("Authorization", "token "+c.token)
		if payload != nil {
			request.Header.Set("Content-Type", "application/json")
			request.Header.Set("Content-Encoding", "gzip")
		}
		request.Header.Set("X-Request-Id", uuid.NewString())

		c.logger.Debug("api request",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Int("compressedBytes", len(payload)))

		response, err := c.client.Do(request)
		if err != nil {
			return nil, fmt.Errorf("client response error: %w", err)
		}
		defer response.Body.Close()

		if !isAccepted(response.StatusCode, accepted) {
			return nil, handleClientError(response)
		}

		if err := json.NewDecoder(response.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}

		return nil, nil
	})

	return err
}

func compress(body interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)

	if err := json.NewEncoder(writer).Encode(body); err != nil {
		return nil, fmt.Errorf("error encoding request body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error compressing request body: %w", err)
	}

	return buffer.Bytes(), nil
}

func isAccepted(statusCode int, accepted []int) bool {
	for _, code := range accepted {
		if statusCode == code {
			return true
		}
	}

	return false
}

// forceHTTPS upgrades plain http to https for everything except local
// development servers.
func forceHTTPS(u *url.URL) *url.URL {
	if u.Scheme != "http" {
		return u
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return u
	}

	upgraded := *u
	upgraded.Scheme = "https"
	return &upgraded
}

func handleClientError(response *http.Response) error {
	var clientError models.Error
	if err := json.NewDecoder(response.Body).Decode(&clientError); err != nil {
		return &clierrors.APIError{StatusCode: response.StatusCode}
	}

	return &clierrors.APIError{StatusCode: response.StatusCode, Message: clientError.String()}
}
