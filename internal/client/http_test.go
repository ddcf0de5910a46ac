package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCountInstalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/installed/count" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"count":7}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 0)
	n, err := c.CountInstalled(context.Background())
	if err != nil {
		t.Fatalf("CountInstalled: %v", err)
	}
	if n != 7 {
		t.Errorf("CountInstalled = %d, want 7", n)
	}
}

func TestCountInstalled_RejectsNegative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"count":-1}`))
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "", 0).CountInstalled(context.Background()); err == nil {
		t.Fatal("expected error for negative count")
	}
}

func TestRunAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analysis" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"count":2,"size":1049076}`))
	}))
	defer srv.Close()

	sum, err := NewHTTPClient(srv.URL, "", 0).RunAnalysis(context.Background())
	if err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}
	if sum.Count != 2 || sum.SizeBytes != 1049076 {
		t.Errorf("RunAnalysis = %+v, want {2 1049076}", sum)
	}
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "scan exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, "", 0).RunAnalysis(context.Background())
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "scan exploded") {
		t.Errorf("error %q should carry status and body", err)
	}
}

func TestBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"count":0}`))
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "s3cret", 0).CountInstalled(context.Background()); err != nil {
		t.Fatalf("CountInstalled: %v", err)
	}
	if got != "Bearer s3cret" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer s3cret")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"hostname":"box","os":"windows","platform":"Microsoft Windows 11 Pro"}`))
	}))
	defer srv.Close()

	h, err := NewHTTPClient(srv.URL, "", 0).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.OS != "windows" || h.Hostname != "box" {
		t.Errorf("Health = %+v", h)
	}
}

func TestDeriveHTTPBase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ws://127.0.0.1:8080/ws", "http://127.0.0.1:8080"},
		{"wss://scan.example.com/ws", "https://scan.example.com"},
		{"::bad", "http://127.0.0.1:8080"},
	}
	for _, tt := range tests {
		if got := DeriveHTTPBase(tt.in); got != tt.want {
			t.Errorf("DeriveHTTPBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenExternalLink_RejectsNonHTTP(t *testing.T) {
	if err := OpenExternalLink("file:///etc/passwd"); err == nil {
		t.Error("expected non-http link to be refused")
	}
}
