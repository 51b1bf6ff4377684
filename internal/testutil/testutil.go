// Package testutil holds helpers shared across handler tests.
package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

// DecodeEnvelope decodes the {"data": ...} response wrapper into v.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decode data: %v (body: %s)", err, w.Body.String())
	}
}

// DecodeError extracts the error message from a JSON error response.
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (body: %s)", err, w.Body.String())
	}
	return resp.Error
}
