// Package inbox keeps the user's unread notification count current. Two
// sources feed one reducer goroutine that owns the count: a polling read of
// the backend and an optional realtime subscription pushing deltas.
package inbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/collegestudy/resource_downloader/internal/logctx"
)

// CountReader reads the authoritative unread count from the backend.
type CountReader interface {
	UnreadNotificationCount(ctx context.Context, userID string) (int, error)
}

// Subscription is a realtime event source. Each value received on the
// returned channel adjusts the unread count by that delta. The channel must
// be closed when ctx is cancelled.
type Subscription interface {
	Subscribe(ctx context.Context, userID string) (<-chan int, error)
}

type event struct {
	// absolute is applied as-is when set, otherwise delta is added.
	absolute *int
	delta    int
}

// Service owns the unread count for one signed-in user.
type Service struct {
	reader   CountReader
	sub      Subscription
	interval time.Duration

	mu     sync.RWMutex
	count  int
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService builds an inbox service. sub may be nil when no realtime
// channel is available; polling alone then keeps the count fresh.
func NewService(reader CountReader, sub Subscription, interval time.Duration) *Service {
	return &Service{
		reader:   reader,
		sub:      sub,
		interval: interval,
	}
}

// Init starts the reducer and its event sources for the given user. It must
// be called once per sign-in; Teardown reverses it.
func (s *Service) Init(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return errors.New("inbox: already initialized")
	}

	ctx, cancel := context.WithCancel(ctx)

	var deltas <-chan int

	if s.sub != nil {
		d, err := s.sub.Subscribe(ctx, userID)
		if err != nil {
			cancel()

			return err
		}

		deltas = d
	}

	s.cancel = cancel
	s.count = 0

	events := make(chan event)

	s.wg.Add(1)

	go s.reduce(ctx, events)

	s.wg.Add(1)

	go s.poll(ctx, userID, events)

	if deltas != nil {
		s.wg.Add(1)

		go s.forward(ctx, deltas, events)
	}

	return nil
}

// Teardown stops all goroutines and resets the count. Safe to call when not
// initialized.
func (s *Service) Teardown() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.count = 0
	s.mu.Unlock()
}

// UnreadCount returns a snapshot of the current unread count.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.count
}

// reduce is the only writer of the count while the service is running.
func (s *Service) reduce(ctx context.Context, events <-chan event) {
	defer s.wg.Done()

	logger := logctx.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("inbox reducer panicked", "panic", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			s.mu.Lock()

			if ev.absolute != nil {
				s.count = *ev.absolute
			} else {
				s.count += ev.delta
				if s.count < 0 {
					s.count = 0
				}
			}

			s.mu.Unlock()
		}
	}
}

func (s *Service) poll(ctx context.Context, userID string, events chan<- event) {
	defer s.wg.Done()

	logger := logctx.LoggerFromContext(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	read := func() {
		n, err := s.reader.UnreadNotificationCount(ctx, userID)
		if err != nil {
			logger.Warn("failed to poll unread count", "err", err)

			return
		}

		select {
		case events <- event{absolute: &n}:
		case <-ctx.Done():
		}
	}

	read()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			read()
		}
	}
}

func (s *Service) forward(ctx context.Context, deltas <-chan int, events chan<- event) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deltas:
			if !ok {
				return
			}

			select {
			case events <- event{delta: d}:
			case <-ctx.Done():
			}
		}
	}
}
