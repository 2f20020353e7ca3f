package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAssetHandler(t *testing.T) {
	handler := AssetHandler()

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantType    string
		wantInBody  string
		wantLocated string
	}{
		{"root redirects", "GET", "/", http.StatusFound, "", "", "/login.html"},
		{"login page", "GET", "/login.html", http.StatusOK, "text/html; charset=utf-8", "login-form", ""},
		{"dashboard", "GET", "/index.html", http.StatusOK, "text/html; charset=utf-8", "dashboard", ""},
		{"script", "GET", "/app.js", http.StatusOK, "application/javascript; charset=utf-8", "/api/data", ""},
		{"stylesheet", "GET", "/style.css", http.StatusOK, "text/css; charset=utf-8", "--accent", ""},
		{"missing", "GET", "/nope.js", http.StatusNotFound, "", "", ""},
		{"traversal", "GET", "/../ui.go", http.StatusNotFound, "", "", ""},
		{"wrong method", "POST", "/index.html", http.StatusMethodNotAllowed, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.URL.Path = tt.path
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantType)
			}
			if tt.wantInBody != "" && !strings.Contains(rec.Body.String(), tt.wantInBody) {
				t.Errorf("Body does not contain %q", tt.wantInBody)
			}
			if tt.wantLocated != "" && rec.Header().Get("Location") != tt.wantLocated {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantLocated)
			}
		})
	}
}
