package bestlap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Payload is the JSON body posted to the collector.
type Payload struct {
	NickName      string `json:"nickName"`
	BestLapTimeMs uint32 `json:"bestLapTimeMs"`
	FormattedTime string `json:"formattedTime"`
}

func NewPayload(driverName string, lapTimeMs uint32) Payload {
	return Payload{
		NickName:      driverName,
		BestLapTimeMs: lapTimeMs,
		FormattedTime: FormatLapTime(lapTimeMs),
	}
}

type Notifier interface {
	Notify(ctx context.Context, payload Payload) error
}

// StatusError is returned by HTTPNotifier when the collector answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned HTTP %d", e.StatusCode)
	}

	return fmt.Sprintf("collector returned HTTP %d: %s", e.StatusCode, e.Body)
}

// IsTimeout reports whether err is the result of the notification timeout expiring.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey{}).(string)

	return requestID, ok
}

const maxErrorBodySize = 512

// HTTPNotifier posts payloads to the collector. Each call is a single attempt.
type HTTPNotifier struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

func NewHTTPNotifier(url string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		url:     url,
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, payload Payload) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	body, err := json.Marshal(payload)

	if err != nil {
		return errors.Wrap(err, "could not marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))

	if err != nil {
		return errors.Wrap(err, "could not build notification request")
	}

	req.Header.Set("Content-Type", "application/json")

	if requestID, ok := RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := n.client.Do(req)

	if err != nil {
		return errors.Wrapf(err, "could not post notification to %s", n.url)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	_, _ = io.Copy(ioutil.Discard, resp.Body)

	return nil
}
