package bestlap

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestHTTPNotifierNotify(t *testing.T) {
	var (
		body        []byte
		contentType string
		requestID   string
		method      string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-ID")
		body, _ = ioutil.ReadAll(r.Body)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(server.URL, time.Second)

	err := notifier.Notify(WithRequestID(context.Background(), "abc"), NewPayload("Alice", 65000))

	if err != nil {
		t.Fatal(err)
	}

	if method != http.MethodPost {
		t.Errorf("expected POST, got %s", method)
	}

	if contentType != "application/json" {
		t.Errorf("unexpected content type %s", contentType)
	}

	if requestID != "abc" {
		t.Errorf("expected request id to be forwarded, got %q", requestID)
	}

	expected := `{"nickName":"Alice","bestLapTimeMs":65000,"formattedTime":"01:05.000"}`

	if string(body) != expected {
		t.Errorf("unexpected body %s, expected %s", body, expected)
	}

	var payload Payload

	if err := json.Unmarshal(body, &payload); err != nil || payload.BestLapTimeMs != 65000 {
		t.Errorf("could not decode payload: %v %+v", err, payload)
	}
}

func TestHTTPNotifierNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collector is down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := NewHTTPNotifier(server.URL, time.Second).Notify(context.Background(), NewPayload("Alice", 65000))

	var statusErr *StatusError

	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a StatusError, got %v", err)
	}

	if statusErr.StatusCode != http.StatusServiceUnavailable || statusErr.Body != "collector is down" {
		t.Errorf("unexpected status error %+v", statusErr)
	}

	if IsTimeout(err) {
		t.Error("a status error is not a timeout")
	}
}

func TestHTTPNotifierTimeout(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	err := NewHTTPNotifier(server.URL, 50*time.Millisecond).Notify(context.Background(), NewPayload("Alice", 65000))

	if err == nil {
		t.Fatal("expected an error")
	}

	if !IsTimeout(err) {
		t.Errorf("expected a timeout, got %v", err)
	}
}

func TestHTTPNotifierConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewHTTPNotifier(url, time.Second).Notify(context.Background(), NewPayload("Alice", 65000))

	if err == nil {
		t.Fatal("expected an error")
	}

	if IsTimeout(err) {
		t.Errorf("connection refused is not a timeout: %v", err)
	}
}
