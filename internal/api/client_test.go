package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPTimeoutFromEnv(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})

	t.Run("duration format", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "45s")
		if got := httpTimeoutFromEnv(); got != 45*time.Second {
			t.Fatalf("expected 45s timeout, got %v", got)
		}
	})

	t.Run("integer seconds", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "25")
		if got := httpTimeoutFromEnv(); got != 25*time.Second {
			t.Fatalf("expected 25s timeout, got %v", got)
		}
	})

	t.Run("invalid falls back", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "invalid")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})
}

func TestIsVersionConflict(t *testing.T) {
	conflict := &APIError{Status: http.StatusConflict, Code: "conflict", ErrorCode: ErrorCodeVersionConflict, Message: "record version conflict"}
	if !IsVersionConflict(conflict) {
		t.Fatal("expected conflict error to be detected")
	}
	if !IsVersionConflict(fmt.Errorf("update: %w", conflict)) {
		t.Fatal("expected wrapped conflict error to be detected")
	}
	if IsVersionConflict(&APIError{Status: http.StatusNotFound, ErrorCode: 2001}) {
		t.Fatal("not-found must not register as a conflict")
	}
	if IsVersionConflict(errors.New("plain error")) {
		t.Fatal("plain error must not register as a conflict")
	}
}

func TestUpdateRecordMultipartTransmitsEmptyFields(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = r.MultipartForm.Value
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"pu-abc123","version":2}`)
	}))
	defer srv.Close()

	empty := ""
	c := NewClient(srv.URL)
	media := &MediaUpload{Content: strings.NewReader("riff"), ContentType: "audio/mpeg"}
	if _, err := c.UpdateRecord(context.Background(), "pu-abc123", RecordUpdateRequest{Caption: &empty, ExpectedVersion: 1}, media); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Clearing a field means the key must be present with an empty value.
	values, ok := form["caption"]
	if !ok {
		t.Fatalf("expected caption key in form, got keys %v", form)
	}
	if len(values) != 1 || values[0] != "" {
		t.Fatalf("expected single empty caption value, got %v", values)
	}
	if _, ok := form["title"]; ok {
		t.Fatalf("title was not provided and must stay absent, got keys %v", form)
	}
	if got := form["expected_version"]; len(got) != 1 || got[0] != "1" {
		t.Fatalf("unexpected expected_version: %v", got)
	}
}

func TestDecodeError(t *testing.T) {
	t.Run("structured error body", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusConflict,
			Status:     "409 Conflict",
			Body:       io.NopCloser(strings.NewReader(`{"error":"record version conflict","code":"conflict","error_code":2101}`)),
		}

		err := decodeError(resp)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.Status != http.StatusConflict || apiErr.ErrorCode != 2101 || apiErr.Code != "conflict" {
			t.Fatalf("unexpected APIError %+v", apiErr)
		}
	})

	t.Run("unstructured body", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusBadGateway,
			Status:     "502 Bad Gateway",
			Body:       io.NopCloser(strings.NewReader("upstream broke")),
		}

		err := decodeError(resp)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.Status != http.StatusBadGateway || apiErr.Message != "502 Bad Gateway" {
			t.Fatalf("unexpected APIError %+v", apiErr)
		}
	})
}
