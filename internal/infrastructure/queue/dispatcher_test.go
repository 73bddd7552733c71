package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
	err     error
}

func (r *memAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memAuditRepo) List(context.Context, ports.AuditFilter) ([]*domain.AuditEntry, error) {
	return nil, nil
}

func (r *memAuditRepo) snapshot() []*domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.AuditEntry(nil), r.entries...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestAuditDispatcher_PersistsWithIDAndTimestamp(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(2, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Record(domain.AuditEntry{Event: domain.AuditLoginFailed, Actor: "a@lab.com", ClientIP: "10.0.0.1"})

	waitFor(t, func() bool { return len(repo.snapshot()) == 1 })
	got := repo.snapshot()[0]
	if got.ID == "" {
		t.Errorf("expected generated ID")
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("expected timestamp")
	}
	if got.Event != domain.AuditLoginFailed || got.Actor != "a@lab.com" {
		t.Errorf("unexpected entry: %+v", got)
	}
}

func TestAuditDispatcher_PreservesPerActorOrder(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 20; i++ {
		d.Record(domain.AuditEntry{Event: domain.AuditLoginFailed, Actor: "same@lab.com", Detail: string(rune('a' + i))})
	}

	waitFor(t, func() bool { return len(repo.snapshot()) == 20 })
	for i, e := range repo.snapshot() {
		if e.Detail != string(rune('a'+i)) {
			t.Fatalf("entry %d out of order: %q", i, e.Detail)
		}
	}
}

func TestAuditDispatcher_DropsWhenFull(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())
	// Not started: the channel fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Record(domain.AuditEntry{Event: domain.AuditAuthzDenied, Actor: "u"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected %d queued entries, got %d", channelBuffer, got)
	}
}

func TestAuditDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())
	for i := 0; i < 5; i++ {
		d.Record(domain.AuditEntry{Event: domain.AuditAuthzDenied, Actor: "u"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if got := len(repo.snapshot()); got != 5 {
		t.Fatalf("expected 5 drained entries, got %d", got)
	}
}

func TestAuditDispatcher_RepositoryErrorIsNotFatal(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("write failed")}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Record(domain.AuditEntry{Event: domain.AuditAuthzDenied, Actor: "u"})
	d.Record(domain.AuditEntry{Event: domain.AuditAuthzDenied, Actor: "u"})

	waitFor(t, func() bool { return len(d.workers[0]) == 0 })
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewAuditDispatcher(8, &memAuditRepo{}, zerolog.Nop())
	if d.shardIndex("x@lab.com") != d.shardIndex("x@lab.com") {
		t.Fatalf("shard index must be stable")
	}
	if idx := d.shardIndex(""); idx < 0 || idx >= 8 {
		t.Fatalf("index out of range: %d", idx)
	}
}
