package project

import (
	"log/slog"
	"sync"

	"github.com/piwi3910/tangram/internal/model"
)

// RecordWriter is the storage a Saver writes through.
type RecordWriter interface {
	Save(rec model.ArrangementRecord) error
}

// Saver persists arrangement records on a background goroutine. Save never
// blocks the caller: when the queue is full the record is dropped and
// logged, and write failures are only logged.
type Saver struct {
	store  RecordWriter
	logger *slog.Logger
	queue  chan model.ArrangementRecord

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewSaver starts the background writer. queueSize below 1 is treated as 1.
func NewSaver(store RecordWriter, logger *slog.Logger, queueSize int) *Saver {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Saver{
		store:  store,
		logger: logger,
		queue:  make(chan model.ArrangementRecord, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Saver) run() {
	defer close(s.done)
	for rec := range s.queue {
		if err := s.store.Save(rec); err != nil {
			s.logger.Error("failed to save arrangement", "id", rec.ID, "error", err)
			continue
		}
		s.logger.Debug("arrangement saved", "id", rec.ID, "elements", len(rec.Elements))
	}
}

// Save queues rec for writing.
func (s *Saver) Save(rec model.ArrangementRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("saver closed, dropping arrangement", "id", rec.ID)
		return
	}
	select {
	case s.queue <- rec:
	default:
		s.logger.Warn("save queue full, dropping arrangement", "id", rec.ID)
	}
}

// Close stops accepting records and waits for queued ones to be written.
func (s *Saver) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}
