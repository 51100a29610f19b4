package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name           string
		setupRequest   func(r *http.Request)
		expectedStatus int
		expectedUser   bool
	}{
		{
			name: "Valid user header",
			setupRequest: func(r *http.Request) {
				r.Header.Set("X-User-ID", "1")
			},
			expectedStatus: http.StatusOK,
			expectedUser:   true,
		},
		{
			name:           "No header",
			setupRequest:   func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
			expectedUser:   false,
		},
		{
			name: "Non-numeric header",
			setupRequest: func(r *http.Request) {
				r.Header.Set("X-User-ID", "alice")
			},
			expectedStatus: http.StatusUnauthorized,
			expectedUser:   false,
		},
		{
			name: "Zero user ID",
			setupRequest: func(r *http.Request) {
				r.Header.Set("X-User-ID", "0")
			},
			expectedStatus: http.StatusUnauthorized,
			expectedUser:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				userID, ok := r.Context().Value(UserIDKey).(int64)
				if !ok && tt.expectedUser {
					t.Error("Expected user ID in context, got none")
				}
				if ok && !tt.expectedUser {
					t.Error("Unexpected user ID in context")
				}
				if ok && userID != 1 {
					t.Errorf("Expected user ID 1, got %d", userID)
				}
				w.WriteHeader(http.StatusOK)
			})

			handler := Identity()(nextHandler)

			req := httptest.NewRequest("GET", "/", nil)
			tt.setupRequest(req)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}
