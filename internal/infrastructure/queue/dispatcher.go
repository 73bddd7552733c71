package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
	"github.com/bactolab/lims/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// AuditDispatcher persists audit entries off the request path. Entries are
// sharded by actor, so one actor's entries are written in the order recorded.
type AuditDispatcher struct {
	workers []chan domain.AuditEntry
	repo    ports.AuditRepository
	log     zerolog.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

var _ ports.AuditRecorder = (*AuditDispatcher)(nil)

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuditEntry, numWorkers),
		repo:    repo,
		log:     log,
		now:     time.Now,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEntry, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain what is already queued
// and stop when ctx is cancelled.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		i, ch := i, ch
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.runWorker(ctx, i, ch)
		}()
	}
}

// Wait blocks until every worker has drained and exited.
func (d *AuditDispatcher) Wait() {
	d.wg.Wait()
}

// Record assigns an ID and timestamp when missing and enqueues the entry.
// A full worker channel drops the entry instead of stalling the request.
func (d *AuditDispatcher) Record(entry domain.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = d.now().UTC()
	}

	idx := d.shardIndex(entry.Actor)
	select {
	case d.workers[idx] <- entry:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("event", string(entry.Event)).
			Int("worker_id", idx).
			Msg("audit queue full, entry dropped")
	}
}

// shardIndex maps an actor deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(actor string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actor))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEntry) {
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case entry := <-ch:
			d.store(context.WithoutCancel(ctx), id, entry)
		}
	}
}

func (d *AuditDispatcher) drain(id int, ch <-chan domain.AuditEntry) {
	for {
		select {
		case entry := <-ch:
			d.store(context.Background(), id, entry)
		default:
			return
		}
	}
}

func (d *AuditDispatcher) store(ctx context.Context, id int, entry domain.AuditEntry) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(d.workers[id])))
	if err := d.repo.Insert(ctx, &entry); err != nil {
		metrics.AuditEntriesTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("event", string(entry.Event)).
			Int("worker_id", id).
			Msg("audit entry persistence failed")
		return
	}
	metrics.AuditEntriesTotal.WithLabelValues("stored").Inc()
}
