package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestWorkerAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("worker-key-123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash key: %v", err)
	}

	handler := WorkerAuth(string(hash))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{name: "valid key", key: "worker-key-123", wantStatus: http.StatusOK},
		{name: "wrong key", key: "not-the-key", wantStatus: http.StatusUnauthorized},
		{name: "missing key", key: "", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/outbox/claim", nil)
			if tt.key != "" {
				req.Header.Set("X-Worker-Key", tt.key)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestWorkerAuth_Disabled(t *testing.T) {
	handler := WorkerAuth("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached when worker auth is disabled")
	}))

	req := httptest.NewRequest("POST", "/v1/outbox/claim", nil)
	req.Header.Set("X-Worker-Key", "anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", w.Code, http.StatusNotFound)
	}
}
