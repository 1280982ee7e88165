// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vahan-chatbot/internal/common/config"
	"vahan-chatbot/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client with a connect-time retry.
type Client struct {
	client         zbc.Client
	requestTimeout time.Duration
}

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 5,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// dial and probe are swapped in tests.
var (
	dial = func(cfg *zbc.ClientConfig) (zbc.Client, error) {
		return zbc.NewClient(cfg)
	}
	probe = func(ctx context.Context, c zbc.Client) error {
		_, err := c.NewTopologyCommand().Send(ctx)
		return err
	}
)

// Connect dials the broker and waits for a topology response. Transient
// failures are retried with exponential backoff; anything else fails fast.
func Connect(ctx context.Context, cfg config.CamundaConfig, retry *RetryConfig, log logger.Logger) (*Client, error) {
	if retry == nil {
		retry = DefaultRetryConfig
	}
	requestTimeout := config.GetDuration(cfg.RequestTimeout)

	var lastErr error
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		zb, err := dial(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: true,
		})
		if err == nil {
			probeCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			err = probe(probeCtx, zb)
			cancel()
			if err == nil {
				return &Client{client: zb, requestTimeout: requestTimeout}, nil
			}
			_ = zb.Close()
		}

		lastErr = err
		if !isRetryableZeebeError(err) || attempt == retry.MaxRetries {
			break
		}

		delay := backoffDelay(retry, attempt)
		log.Warn("Zeebe broker not reachable, retrying", map[string]interface{}{
			"address":     cfg.BrokerAddress,
			"attempt":     attempt + 1,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("zeebe connect cancelled after %d attempts: %w", attempt+1, ctx.Err())
		}
	}
	return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, lastErr)
}

func backoffDelay(retry *RetryConfig, attempt int) time.Duration {
	delay := retry.BaseDelay * time.Duration(1<<attempt)
	if delay > retry.MaxDelay {
		delay = retry.MaxDelay
	}
	return delay
}

// isRetryableZeebeError checks if the error is transient and should be retried.
func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// Zeebe returns the raw client for opening job workers.
func (c *Client) Zeebe() zbc.Client {
	return c.client
}

// HealthCheck backs the worker manager readiness probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()
	if err := probe(ctx, c.client); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
