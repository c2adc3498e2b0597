// Package vies checks VAT numbers against the European Commission's VIES
// registry over its SOAP interface.
package vies

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultEndpoint = "https://ec.europa.eu/taxation_customs/vies/services/checkVatService"
	DefaultTimeout  = 2 * time.Second
	DefaultAttempts = 3
	DefaultPause    = 1 * time.Second

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 1 << 20
)

// Metrics observes registry requests. *telemetry.VATMetrics satisfies it.
type Metrics interface {
	ObserveRegistryAttempt(result string, d time.Duration)
}

// Config configures a Client. Zero values fall back to the defaults above.
type Config struct {
	Endpoint string
	Timeout  time.Duration // per attempt
	Attempts int
	Pause    time.Duration // after a transport failure; negative disables it

	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    Metrics
}

// Client implements vat.RegistryClient against VIES.
type Client struct {
	endpoint   string
	timeout    time.Duration
	attempts   int
	pause      time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    Metrics
}

var _ vat.RegistryClient = (*Client)(nil)

// New creates a VIES client.
func New(cfg Config) *Client {
	c := &Client{
		endpoint:   cfg.Endpoint,
		timeout:    cfg.Timeout,
		attempts:   cfg.Attempts,
		pause:      cfg.Pause,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With().Str("component", "vies").Logger(),
		metrics:    cfg.Metrics,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.attempts <= 0 {
		c.attempts = DefaultAttempts
	}
	switch {
	case c.pause == 0:
		c.pause = DefaultPause
	case c.pause < 0:
		c.pause = 0
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: &telemetry.HTTPTransport{}}
	}
	return c
}

// Check asks VIES whether prefix+remainder is a registered VAT number.
// It never returns an error: when the registry cannot answer within the
// attempt budget, or ctx is cancelled, the result is RegistryInconclusive.
func (c *Client) Check(ctx context.Context, prefix, remainder string) vat.RegistryResult {
	var (
		attempts int
		pause    time.Duration
		result   = vat.RegistryResult{Status: vat.RegistryInconclusive}
	)

	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if attempts >= c.attempts {
			return 0, true
		}
		return pause, false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		a := c.attempt(ctx, prefix, remainder)
		result.Fault = a.fault

		switch a.kind {
		case answerValid:
			result.Status = vat.RegistryValid
			return nil
		case answerInvalid:
			result.Status = vat.RegistryInvalid
			return nil
		case answerAmbiguous:
			pause = 0
		default:
			pause = c.pause
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		return retry.RetryableError(errors.New(a.fault))
	})
	result.Attempts = attempts

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Status = vat.RegistryInconclusive
			result.Fault = ctxErr.Error()
		}
		c.logger.Debug().
			Str("prefix", prefix).
			Int("attempts", attempts).
			Str("fault", result.Fault).
			Msg("vies check inconclusive")
	}

	return result
}

func (c *Client) attempt(ctx context.Context, prefix, remainder string) answer {
	start := time.Now()
	a := c.do(ctx, prefix, remainder)

	if c.metrics != nil {
		c.metrics.ObserveRegistryAttempt(a.kind.String(), time.Since(start))
	}
	c.logger.Debug().
		Str("prefix", prefix).
		Str("result", a.kind.String()).
		Str("fault", a.fault).
		Dur("duration", time.Since(start)).
		Msg("vies attempt")

	return a
}

func (c *Client) do(ctx context.Context, prefix, remainder string) answer {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := encodeRequest(prefix, remainder)
	if err != nil {
		return answer{kind: answerTransport, fault: fmt.Sprintf("failed to encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return answer{kind: answerTransport, fault: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return answer{kind: answerTransport, fault: fmt.Sprintf("failed to send request: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return answer{kind: answerTransport, fault: fmt.Sprintf("failed to read response: %v", err)}
	}

	return classify(body, resp.StatusCode)
}
