package mediasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/logging"
)

// HTTPSource downloads media over HTTP(S). Network errors, 5xx and 429
// responses are retried with exponential backoff; any other non-2xx status
// fails immediately.
type HTTPSource struct {
	client     *http.Client
	maxRetries uint64
	log        logging.Logger

	newBackOff func() backoff.BackOff
}

// NewHTTPSource bounds the wait for response headers by timeout. The body
// is not bounded, so large media is not cut off; ctx cancels a stalled read.
func NewHTTPSource(timeout time.Duration, maxRetries int, log logging.Logger) *HTTPSource {
	if maxRetries < 0 {
		maxRetries = 0
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &HTTPSource{
		client:     &http.Client{Transport: transport},
		maxRetries: uint64(maxRetries),
		log:        log,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func (s *HTTPSource) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var body io.ReadCloser

	op := func() error {
		rc, err := s.get(ctx, rawURL)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && !se.retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		body = rc
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.log.Debug(ctx, "retrying media download", "url", rawURL, "error", err, "wait", wait)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransferFailure, err)
	}

	return body, nil
}

func (s *HTTPSource) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}
