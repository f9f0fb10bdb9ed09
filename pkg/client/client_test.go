package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func commandServer(t *testing.T, handler func(cmd string, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/command" {
			http.NotFound(w, r)
			return
		}
		handler(r.URL.Query().Get("cmd"), w)
	}))
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("Expected default baseURL http://localhost:8080, got %s", c.baseURL)
	}
	if c.client.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout 10s, got %v", c.client.Timeout)
	}

	c = New(Config{BaseURL: "http://example.com/", Timeout: 5 * time.Second})
	if c.baseURL != "http://example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", c.baseURL)
	}
	if c.client.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", c.client.Timeout)
	}
}

func TestInvokeEncodesCommand(t *testing.T) {
	var gotRaw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(Response{Status: StatusSuccess})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Timeout: time.Second})
	resp, err := c.Invoke(context.Background(), "start", []string{"web server"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if resp.Status != StatusSuccess {
		t.Errorf("Expected success status, got %q", resp.Status)
	}
	want := "cmd=" + url.QueryEscape("start web server")
	if gotRaw != want {
		t.Errorf("Expected query %q, got %q", want, gotRaw)
	}
}

func TestInvokeSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Response{Status: StatusSuccess})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Token: "tok123"})
	if _, err := c.Invoke(context.Background(), "alive", nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Expected bearer token header, got %q", gotAuth)
	}
}

func TestInvokeAuthRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Invoke(context.Background(), "status", nil)
	if !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Expected ErrAuthRequired, got %v", err)
	}
	if !IsAuthRequired(err) {
		t.Error("IsAuthRequired should report true")
	}
}

func TestInvokeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Invoke(context.Background(), "status", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestStatusDecodesSnapshot(t *testing.T) {
	server := commandServer(t, func(cmd string, w http.ResponseWriter) {
		if cmd != "status" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"web":{"name":"web","status":"running","pid":42},"worker":{"name":"worker","status":"stopped"}}}`))
	})
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	snap, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("Expected 2 processes, got %d", len(snap))
	}
	if _, ok := snap["web"]; !ok {
		t.Error("Expected web in snapshot")
	}
}

func TestCommandErrorEnvelope(t *testing.T) {
	server := commandServer(t, func(cmd string, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"status":"error","message":"Program 'ghost' not found"}`))
	})
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.Start(context.Background(), "ghost")
	if err == nil {
		t.Fatal("Expected error for error envelope, got nil")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Expected *CommandError, got %T", err)
	}
	if cmdErr.Message != "Program 'ghost' not found" {
		t.Errorf("Unexpected message: %q", cmdErr.Message)
	}
}

func TestLifecycleHelpers(t *testing.T) {
	var got []string
	server := commandServer(t, func(cmd string, w http.ResponseWriter) {
		got = append(got, cmd)
		_ = json.NewEncoder(w).Encode(Response{Status: StatusSuccess})
	})
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	ctx := context.Background()
	if err := c.Start(ctx, "web"); err != nil {
		t.Errorf("Start failed: %v", err)
	}
	if err := c.Stop(ctx, "web"); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := c.Restart(ctx, "web"); err != nil {
		t.Errorf("Restart failed: %v", err)
	}
	if err := c.Alive(ctx); err != nil {
		t.Errorf("Alive failed: %v", err)
	}
	want := []string{"start web", "stop web", "restart web", "alive"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d commands, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Command %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDaemonPID(t *testing.T) {
	server := commandServer(t, func(cmd string, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"status":"success","data":1337}`))
	})
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	pid, err := c.DaemonPID(context.Background())
	if err != nil {
		t.Fatalf("DaemonPID failed: %v", err)
	}
	if pid != 1337 {
		t.Errorf("Expected pid 1337, got %d", pid)
	}
}

func TestNetworkError(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if _, err := c.Invoke(context.Background(), "status", nil); err == nil {
		t.Error("Expected network error")
	}
}
