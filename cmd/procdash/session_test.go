package main

import (
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	sm := NewSessionManager()

	if sm.IsLoggedIn() {
		t.Fatal("fresh home reports a session")
	}

	in := &Session{
		Token:     "tok-123",
		ServerURL: "http://localhost:8080",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := sm.SaveSession(in); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	out, err := sm.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if out == nil || out.Token != in.Token || out.ServerURL != in.ServerURL {
		t.Errorf("loaded session = %+v", out)
	}
	if !sm.IsLoggedIn() {
		t.Error("IsLoggedIn false after save")
	}

	if err := sm.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if sm.IsLoggedIn() {
		t.Error("session survives clear")
	}
	// Clearing twice is fine.
	if err := sm.ClearSession(); err != nil {
		t.Errorf("second ClearSession: %v", err)
	}
}

func TestLoadSessionMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	sm := NewSessionManager()
	session, err := sm.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil", session)
	}
}
