package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "diagnostics.jsonl")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink() error = %v", err)
	}

	rec := NewRecorder(10, sink)
	rec.Info("form opened", map[string]any{"fields": 6})
	rec.Critical("recovery failed", nil, nil)
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// a torn line from a crash is skipped
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	_, _ = f.WriteString(`{"id":"x","lev` + "\n")
	_ = f.Close()

	entries, skipped, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(entries) != 2 || skipped != 1 {
		t.Fatalf("entries=%d skipped=%d, want 2 and 1", len(entries), skipped)
	}
	if entries[1].Level != LevelCritical || entries[0].Message != "form opened" {
		t.Errorf("entries = %+v", entries)
	}

	if err := sink.Write(Entry{}); err == nil {
		t.Error("Write after Close succeeded")
	}
}

func TestConsoleSink(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	sink := NewConsoleSink(zap.New(core))

	_ = sink.Write(Entry{Level: LevelWarn, Message: "slow validator", Context: map[string]any{"id": "dose"}})
	_ = sink.Write(Entry{Level: LevelCritical, Message: "recovery failed"})

	if logs.Len() != 2 {
		t.Fatalf("logs = %d, want 2", logs.Len())
	}
	if logs.All()[1].Level != zap.ErrorLevel {
		t.Errorf("critical logged at %v", logs.All()[1].Level)
	}
}

func TestRemoteSinkDelivers(t *testing.T) {
	received := make(chan Entry, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var e Entry
			if err := conn.ReadJSON(&e); err != nil {
				return
			}
			received <- e
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	sink := NewRemoteSink(url, WithBackOff(func() backoff.BackOff {
		return backoff.NewConstantBackOff(10 * time.Millisecond)
	}))
	defer sink.Close()

	rec := NewRecorder(4, sink)
	rec.Error("focus lost", nil, map[string]any{"id": "unit"})

	select {
	case e := <-received:
		if e.Message != "focus lost" || e.Level != LevelError {
			t.Errorf("received %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("entry not delivered")
	}
}

func TestRemoteSinkNeverBlocks(t *testing.T) {
	// nothing listens here; the sink keeps retrying in the background
	sink := NewRemoteSink("ws://127.0.0.1:1/logs", WithBackOff(func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Hour)
	}))

	done := make(chan struct{})
	go func() {
		for i := 0; i < remoteQueueSize*2; i++ {
			_ = sink.Write(Entry{Message: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write blocked")
	}
	if sink.Dropped() == 0 {
		t.Error("expected dropped entries once the queue filled")
	}
	_ = sink.Close()
}
