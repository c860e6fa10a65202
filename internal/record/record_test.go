package record

import (
	"context"
	"errors"
	"testing"

	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	trackErr     error
	incrementErr error
	count        int64
	countErr     error

	trackCalls     int
	incrementCalls int
	countCalls     int
}

func (b *fakeBackend) TrackDownload(ctx context.Context, kind document.Kind, docID, userID string) error {
	b.trackCalls++

	return b.trackErr
}

func (b *fakeBackend) IncrementDownloadCount(ctx context.Context, kind document.Kind, docID string) error {
	b.incrementCalls++

	return b.incrementErr
}

func (b *fakeBackend) DownloadCount(ctx context.Context, kind document.Kind, docID string) (int64, error) {
	b.countCalls++

	return b.count, b.countErr
}

type memCounts struct {
	counts map[string]int64
}

func newMemCounts() *memCounts {
	return &memCounts{counts: map[string]int64{}}
}

func (m *memCounts) CachedCount(documentID string) (int64, error) {
	count, ok := m.counts[documentID]
	if !ok {
		return 0, storage.ErrNotCached
	}

	return count, nil
}

func (m *memCounts) SetCachedCount(documentID string, count int64) error {
	if existing, ok := m.counts[documentID]; ok && count <= existing {
		return nil
	}

	m.counts[documentID] = count

	return nil
}

func (m *memCounts) AdvanceCount(documentID string) (int64, error) {
	m.counts[documentID]++

	return m.counts[documentID], nil
}

func testDoc() *document.Document {
	return &document.Document{ID: "doc-1", Kind: document.KindNote, DownloadCount: 5}
}

func TestRecordMissingIdentity(t *testing.T) {
	backend := &fakeBackend{}
	r := NewRecorder(backend, newMemCounts())

	_, err := r.Record(context.Background(), testDoc(), "")
	require.ErrorIs(t, err, ErrIdentityMissing)

	assert.Zero(t, backend.trackCalls, "no tracking call without an identity")
	assert.Zero(t, backend.incrementCalls)
}

func TestRecordRichCallSucceeds(t *testing.T) {
	backend := &fakeBackend{count: 9}
	counts := newMemCounts()
	r := NewRecorder(backend, counts)

	outcome, err := r.Record(context.Background(), testDoc(), "user-1")
	require.NoError(t, err)

	assert.True(t, outcome.Authoritative)
	assert.Equal(t, int64(9), outcome.Count)
	assert.Equal(t, 1, backend.trackCalls)
	assert.Zero(t, backend.incrementCalls, "fallback must not run when the rich call succeeds")
	assert.Equal(t, int64(9), counts.counts["doc-1"])
}

func TestRecordFallsBackToIncrement(t *testing.T) {
	backend := &fakeBackend{trackErr: errors.New("function not found"), count: 6}
	r := NewRecorder(backend, newMemCounts())

	outcome, err := r.Record(context.Background(), testDoc(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.trackCalls)
	assert.Equal(t, 1, backend.incrementCalls)
	assert.True(t, outcome.Authoritative)
	assert.Equal(t, int64(6), outcome.Count)
}

func TestRecordBothCallsFail(t *testing.T) {
	backend := &fakeBackend{
		trackErr:     errors.New("track failed"),
		incrementErr: errors.New("increment failed"),
	}
	counts := newMemCounts()
	r := NewRecorder(backend, counts)

	_, err := r.Record(context.Background(), testDoc(), "user-1")
	require.Error(t, err)

	var recErr *RecordingError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, "doc-1", recErr.DocumentID)

	assert.Zero(t, backend.countCalls, "no read-back after a failed record")
	assert.Empty(t, counts.counts, "local counter must not advance when recording fails")
}

func TestRecordReadBackFailureAdvancesByOne(t *testing.T) {
	backend := &fakeBackend{countErr: errors.New("timeout")}
	counts := newMemCounts()
	r := NewRecorder(backend, counts)

	outcome, err := r.Record(context.Background(), testDoc(), "user-1")
	require.NoError(t, err)

	assert.False(t, outcome.Authoritative)
	// Pre-run cached value is the document's value of 5; optimistic +1.
	assert.Equal(t, int64(6), outcome.Count)
}

func TestRecordReadBackFailureUsesExistingCache(t *testing.T) {
	backend := &fakeBackend{countErr: errors.New("timeout")}
	counts := newMemCounts()
	counts.counts["doc-1"] = 11

	r := NewRecorder(backend, counts)

	outcome, err := r.Record(context.Background(), testDoc(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, int64(12), outcome.Count)
}

// Counter monotonicity: after a run the cached count is either the fresh
// server value or exactly one more than before, never less, never more than
// one ahead.
func TestRecordCounterMonotonicity(t *testing.T) {
	tests := []struct {
		name     string
		backend  *fakeBackend
		preCache int64
		want     int64
	}{
		{"server value wins", &fakeBackend{count: 20}, 5, 20},
		{"stale server value ignored", &fakeBackend{count: 2}, 5, 5},
		{"optimistic bump", &fakeBackend{countErr: errors.New("down")}, 5, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := newMemCounts()
			counts.counts["doc-1"] = tt.preCache

			r := NewRecorder(tt.backend, counts)

			_, err := r.Record(context.Background(), testDoc(), "user-1")
			require.NoError(t, err)

			assert.Equal(t, tt.want, counts.counts["doc-1"])
		})
	}
}
