package inbox

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeReader struct {
	count atomic.Int64
}

func (f *fakeReader) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	return int(f.count.Load()), nil
}

type fakeSubscription struct {
	ch chan int
}

func (f *fakeSubscription) Subscribe(ctx context.Context, userID string) (<-chan int, error) {
	return f.ch, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)

	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPollSeedsCount(t *testing.T) {
	reader := &fakeReader{}
	reader.count.Store(4)

	svc := NewService(reader, nil, time.Hour)

	if err := svc.Init(context.Background(), "user-1"); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer svc.Teardown()

	waitFor(t, func() bool { return svc.UnreadCount() == 4 })
}

func TestSubscriptionDeltas(t *testing.T) {
	reader := &fakeReader{}
	sub := &fakeSubscription{ch: make(chan int)}

	svc := NewService(reader, sub, time.Hour)

	if err := svc.Init(context.Background(), "user-1"); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer svc.Teardown()

	waitFor(t, func() bool { return svc.UnreadCount() == 0 })

	sub.ch <- 1
	sub.ch <- 1

	waitFor(t, func() bool { return svc.UnreadCount() == 2 })

	sub.ch <- -1

	waitFor(t, func() bool { return svc.UnreadCount() == 1 })
}

func TestCountNeverNegative(t *testing.T) {
	reader := &fakeReader{}
	sub := &fakeSubscription{ch: make(chan int)}

	svc := NewService(reader, sub, time.Hour)

	if err := svc.Init(context.Background(), "user-1"); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer svc.Teardown()

	sub.ch <- -5

	waitFor(t, func() bool { return svc.UnreadCount() == 0 })
}

func TestInitTwiceFails(t *testing.T) {
	svc := NewService(&fakeReader{}, nil, time.Hour)

	if err := svc.Init(context.Background(), "user-1"); err != nil {
		t.Fatalf("first Init returned error: %v", err)
	}
	defer svc.Teardown()

	if err := svc.Init(context.Background(), "user-1"); err == nil {
		t.Fatal("second Init should fail")
	}
}

func TestTeardownResetsCount(t *testing.T) {
	reader := &fakeReader{}
	reader.count.Store(7)

	svc := NewService(reader, nil, time.Hour)

	if err := svc.Init(context.Background(), "user-1"); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	waitFor(t, func() bool { return svc.UnreadCount() == 7 })

	svc.Teardown()

	if got := svc.UnreadCount(); got != 0 {
		t.Errorf("expected count 0 after teardown, got %d", got)
	}

	// Teardown again is a no-op.
	svc.Teardown()
}
