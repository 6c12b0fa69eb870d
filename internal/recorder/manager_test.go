package recorder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uirecorder/internal/models"
)

func newTestManager(rec *flushRecorder) *Manager {
	m := NewManager(SessionOptions{FlushInterval: time.Hour, RetryInterval: time.Hour}, rec.flush)
	m.starter = func(s *Session, targetURL string) error {
		s.targetURL = targetURL
		s.recording = true
		return nil
	}
	return m
}

func TestManagerStartStopDeliversCapturedActions(t *testing.T) {
	rec := &flushRecorder{}
	m := newTestManager(rec)

	s, err := m.StartRecording("", "https://example.com/", "iPhone 12 Pro")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())

	s.capture([]models.Action{
		{Type: models.ActionNavigation, URL: "https://example.com/"},
		{Type: models.ActionClick, Target: "a", XPath: "/html/body/div/p[2]/a"},
	})

	status, err := m.GetRecordingStatus(s.ID())
	require.NoError(t, err)
	assert.True(t, status.Recording)
	assert.Equal(t, 2, status.ActionCount)
	assert.Equal(t, "iPhone 12 Pro", status.Device)
	assert.Equal(t, "https://example.com/", status.TargetURL)

	_, err = m.StopRecording(context.Background(), s.ID())
	require.NoError(t, err)
	assert.False(t, s.IsRecording())

	delivered := rec.delivered()
	require.Len(t, delivered, 1)
	assert.Len(t, delivered[0], 2)

	// stopped sessions stay until cleaned up
	_, ok := m.GetSession(s.ID())
	assert.True(t, ok)
	m.CleanupRecording(s.ID())
	_, ok = m.GetSession(s.ID())
	assert.False(t, ok)
}

func TestManagerRejectsDuplicateSession(t *testing.T) {
	m := newTestManager(&flushRecorder{})

	_, err := m.StartRecording("rec-1", "https://example.com/", "")
	require.NoError(t, err)

	_, err = m.StartRecording("rec-1", "https://example.com/", "")
	assert.ErrorIs(t, err, ErrSessionExists)
}

func TestManagerUnknownSession(t *testing.T) {
	m := newTestManager(&flushRecorder{})

	_, err := m.StopRecording(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.GetRecordingStatus("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerStartFailureIsNotRegistered(t *testing.T) {
	m := newTestManager(&flushRecorder{})
	m.starter = func(*Session, string) error { return errors.New("chrome crashed") }

	_, err := m.StartRecording("rec-1", "https://example.com/", "")
	require.Error(t, err)

	_, ok := m.GetSession("rec-1")
	assert.False(t, ok)
}

func TestManagerStopTwice(t *testing.T) {
	m := newTestManager(&flushRecorder{})

	s, err := m.StartRecording("rec-1", "https://example.com/", "")
	require.NoError(t, err)

	_, err = m.StopRecording(context.Background(), s.ID())
	require.NoError(t, err)
	_, err = m.StopRecording(context.Background(), s.ID())
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestManagerStopAll(t *testing.T) {
	rec := &flushRecorder{}
	m := newTestManager(rec)

	a, err := m.StartRecording("a", "https://example.com/", "")
	require.NoError(t, err)
	b, err := m.StartRecording("b", "https://example.com/", "")
	require.NoError(t, err)
	a.capture([]models.Action{{Type: models.ActionClick}})

	m.StopAll(context.Background())
	assert.False(t, a.IsRecording())
	assert.False(t, b.IsRecording())
	assert.Len(t, rec.delivered(), 1)
}

func TestStaleWebSocketDetachKeepsNewerConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer srv.Close()

	dial := func() *websocket.Conn {
		c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { c.Close() })
		return c
	}
	dial()
	older := <-serverConns
	newerClient := dial()
	newer := <-serverConns

	s := newSession("s1", SessionOptions{FlushInterval: time.Hour, RetryInterval: time.Hour}, (&flushRecorder{}).flush)
	t.Cleanup(func() {
		_ = s.batcher.Close(context.Background())
		older.Close()
		newer.Close()
	})
	s.SetWebSocketConnection(older)
	s.SetWebSocketConnection(newer)
	s.ClearWebSocketConnection(older)

	s.capture([]models.Action{{Type: models.ActionClick, XPath: "//a"}})

	require.NoError(t, newerClient.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got models.Action
	require.NoError(t, newerClient.ReadJSON(&got))
	assert.Equal(t, "//a", got.XPath)

	s.ClearWebSocketConnection(newer)
	s.wsMu.Lock()
	assert.Nil(t, s.wsConn)
	s.wsMu.Unlock()
}
