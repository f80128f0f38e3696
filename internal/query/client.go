// Package query implements the lookup client for the remote registration
// service using a Colly collector per request.
package query

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/hmansoor/regprobe/internal/daterange"
	"github.com/hmansoor/regprobe/internal/metrics"
	"github.com/hmansoor/regprobe/internal/search"
)

// Config controls client behavior.
type Config struct {
	// Endpoint is the lookup service URL the multipart POST is sent to.
	Endpoint string
	// IdentifierField and DateField name the two form fields of the payload.
	IdentifierField string
	DateField       string
	// Timeout bounds each request; the service gets no retries.
	Timeout   time.Duration
	UserAgent string
}

const (
	defaultIdentifierField = "registrationNo"
	defaultDateField       = "registrationDate"
	defaultTimeout         = 10 * time.Second
)

// Client implements search.Querier. It owns no shared state beyond the base
// collector template; every Query clones a fresh collector.
type Client struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Client.
func New(cfg Config) *Client {
	if cfg.IdentifierField == "" {
		cfg.IdentifierField = defaultIdentifierField
	}
	if cfg.DateField == "" {
		cfg.DateField = defaultDateField
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Client{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Query issues one multipart POST for the identifier/date pair. Any response
// the service returns, success or not, comes back as an Outcome; an error
// means the request itself failed (refused, timeout, DNS) and maps to a
// transport-level failure for the caller.
func (c *Client) Query(ctx context.Context, identifier string, date time.Time) (search.Outcome, error) {
	collector := c.baseCollector.Clone()
	collector.WithTransport(c.transport)
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}

	var (
		out      search.Outcome
		received bool
		reqErr   error
	)
	collector.OnResponse(func(r *colly.Response) {
		out = search.Outcome{StatusCode: r.StatusCode, Body: string(r.Body)}
		received = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		// Non-2xx responses land here with the body intact; keep them as
		// outcomes so the classifier sees the status code.
		if r != nil && r.StatusCode != 0 {
			out = search.Outcome{StatusCode: r.StatusCode, Body: string(r.Body)}
			received = true
			return
		}
		reqErr = err
	})

	payload := map[string][]byte{
		c.cfg.IdentifierField: []byte(identifier),
		c.cfg.DateField:       []byte(date.Format(daterange.Layout)),
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- collector.PostMultipart(c.cfg.Endpoint, payload)
	}()

	select {
	case <-ctx.Done():
		return search.Outcome{}, fmt.Errorf("lookup canceled: %w", ctx.Err())
	case err := <-done:
		metrics.ObserveQueryDuration(time.Since(start))
		if received {
			return out, nil
		}
		if reqErr != nil {
			return search.Outcome{}, fmt.Errorf("lookup request: %w", reqErr)
		}
		if err != nil {
			return search.Outcome{}, fmt.Errorf("lookup request: %w", err)
		}
		return search.Outcome{}, errors.New("lookup request: no response received")
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
