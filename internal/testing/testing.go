// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/services"
)

// MockAdapter is a configurable test double for [services.Adapter].
//
// Unset function fields fall back to benign defaults so tests only wire the
// calls they care about.
type MockAdapter struct {
	PlatformValue    models.Platform
	EnsureFunc       func(ctx context.Context, account *models.PlatformAccount, playlist *models.Playlist) (string, error)
	AppendFunc       func(ctx context.Context, account *models.PlatformAccount, remoteID string, externalIDs []string) error
	SearchFunc       func(ctx context.Context, account *models.PlatformAccount, query string, limit int) ([]services.TrackCandidate, error)
	RemoteTracksFunc func(ctx context.Context, account *models.PlatformAccount, remoteID string) ([]string, error)

	// Appended records every AppendTracks call's ids, in order.
	Appended [][]string
}

func (m *MockAdapter) Name() string { return "mock-" + string(m.PlatformValue) }

func (m *MockAdapter) Platform() models.Platform { return m.PlatformValue }

func (m *MockAdapter) EnsurePlaylist(ctx context.Context, account *models.PlatformAccount, playlist *models.Playlist) (string, error) {
	if id, ok := playlist.MirrorID(m.PlatformValue); ok {
		return id, nil
	}
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, account, playlist)
	}
	return "remote-" + playlist.ID(), nil
}

func (m *MockAdapter) AppendTracks(ctx context.Context, account *models.PlatformAccount, remoteID string, externalIDs []string) error {
	if m.AppendFunc != nil {
		if err := m.AppendFunc(ctx, account, remoteID, externalIDs); err != nil {
			return err
		}
	}
	m.Appended = append(m.Appended, externalIDs)
	return nil
}

func (m *MockAdapter) SearchTracks(ctx context.Context, account *models.PlatformAccount, query string, limit int) ([]services.TrackCandidate, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, account, query, limit)
	}
	return nil, nil
}

func (m *MockAdapter) PlaylistTrackIDs(ctx context.Context, account *models.PlatformAccount, remoteID string) ([]string, error) {
	if m.RemoteTracksFunc != nil {
		return m.RemoteTracksFunc(ctx, account, remoteID)
	}
	return nil, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// SequenceRoundTripper serves one queued response per request, in order.
type SequenceRoundTripper struct {
	responses []*http.Response
	index     int
}

func NewSequenceRoundTripper(responses ...*http.Response) *SequenceRoundTripper {
	return &SequenceRoundTripper{responses: responses}
}

func (s *SequenceRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	if s.index >= len(s.responses) {
		return nil, errors.New("no more queued responses")
	}
	resp := s.responses[s.index]
	s.index++
	return resp, nil
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
