package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(404, "movie not found", nil)

	if err.Code() != 404 {
		t.Errorf("Code() = %v, want 404", err.Code())
	}
	if err.Message() != "movie not found" {
		t.Errorf("Message() = %v, want 'movie not found'", err.Message())
	}

	expected := "api error 404: movie not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAPIError_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewAPIError(500, "internal error", cause)

	expected := "api error 500: internal error: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestAPIError_CanBeWrapped(t *testing.T) {
	apiErr := NewAPIError(400, "invalid request body", nil)
	wrapped := fmt.Errorf("decode: %w", apiErr)

	var target *APIError
	if !errors.As(wrapped, &target) {
		t.Fatal("wrapped APIError should still match with errors.As")
	}
	if target.Code() != 400 {
		t.Errorf("Code() = %v, want 400", target.Code())
	}
}

func TestWriteError_APIError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/movies/99", nil)

	WriteError(rec, req, NewAPIError(404, "movie not found", nil), slog.Default())

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] != "movie not found" {
		t.Errorf("error message = %q, want 'movie not found'", body["error"])
	}
}

func TestWriteError_UnknownErrorIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/choices", nil)

	WriteError(rec, req, errors.New("csv: parse failure in row 3"), slog.Default())

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("internal detail leaked: %q", body["error"])
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, map[string]int{"id": 7})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}

	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["id"] != 7 {
		t.Errorf("id = %d, want 7", body["id"])
	}
}
