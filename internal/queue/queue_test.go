package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileSinkAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "updates.log")
	sink := NewFileSink(path)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	buy := NewAuditEvent(ActionBuy, "neo", at)
	buy.MovieID, buy.MovieTitle, buy.Copies, buy.TotalCharge = 3, "Alien", 2, 20
	upd := NewAuditEvent(ActionUpdate, "root", at)
	upd.Changes = []Change{{Field: "stock", Old: 1, New: 0}}

	for _, ev := range []AuditEvent{buy, upd} {
		if err := sink.Record(context.Background(), ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "buy") || !strings.Contains(lines[0], "copies=2") || !strings.Contains(lines[0], "total=20.00") {
		t.Errorf("unexpected buy line %q", lines[0])
	}
	if !strings.Contains(lines[1], "stock: 1 -> 0") {
		t.Errorf("unexpected update line %q", lines[1])
	}
}

func TestConsumerHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	c := NewConsumer("amqp://unused", NewFileSink(path), nil)

	ev := NewAuditEvent(ActionDelete, "root", time.Now())
	ev.MovieID = 9
	body, _ := json.Marshal(ev)
	if err := c.Handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := c.Handle(context.Background(), []byte("{")); err == nil {
		t.Fatal("expected malformed body to fail")
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), ev.ID) {
		t.Fatalf("expected event id in log, got %q", data)
	}
}

type failing struct{}

func (failing) Record(context.Context, AuditEvent) error { return errors.New("down") }

func TestFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	f := Fallback{Primary: failing{}, Secondary: NewFileSink(path)}
	if err := f.Record(context.Background(), NewAuditEvent(ActionRent, "neo", time.Now())); err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected secondary sink to write: %v", err)
	}
}

func TestConsumerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewConsumer("amqp://127.0.0.1:1/", NewFileSink(filepath.Join(t.TempDir(), "x.log")), nil)
	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
