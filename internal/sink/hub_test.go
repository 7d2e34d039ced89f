package sink

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/models"
)

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.Connections() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, have %d", want, hub.Connections())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dialHub(t, server)
	waitForConnections(t, hub, 1)

	hub.Broadcast(PopupEvent{Title: "Outpass APPROVED", Body: "done", Icon: "📋", DurationMS: 5000, Sound: true, Unread: 3})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got PopupEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Outpass APPROVED", got.Title)
	assert.Equal(t, int64(5000), got.DurationMS)
	assert.Equal(t, 3, got.Unread)
}

func TestHubDropsClosedConnections(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dialHub(t, server)
	waitForConnections(t, hub, 1)

	conn.Close()
	waitForConnections(t, hub, 0)

	// Broadcasting with nobody attached is harmless.
	hub.Broadcast(PopupEvent{Title: "nobody home"})
}

func TestHubBroadcastConcurrent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dialHub(t, server)
	waitForConnections(t, hub, 1)

	const writers, perWriter = 8, 50

	// Listener streams and the reminder scan all broadcast on their own
	// goroutines; the socket must survive the contention intact.
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				hub.Broadcast(PopupEvent{Title: fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < writers*perWriter; i++ {
		var ev PopupEvent
		require.NoError(t, conn.ReadJSON(&ev), "frame %d", i)
		require.NotEmpty(t, ev.Title)
	}
	assert.Equal(t, 1, hub.Connections())
}

func TestSinkPopupRespectsConfig(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	push := NewPushSender(true, "outpass", zerolog.Nop())

	conn := dialHub(t, server)
	waitForConnections(t, hub, 1)

	cases := []config.RealtimeConfig{
		{Enabled: true, SoundEnabled: true, ShowPopups: false},
		{Enabled: false, SoundEnabled: true, ShowPopups: true},
	}
	for _, rt := range cases {
		s := New(hub, push, 5*time.Second, rt, zerolog.Nop())

		// Realtime off or popups off: nothing reaches the socket.
		s.Popup(models.Notification{Type: models.NotificationTypeReminder}, "T", "M", 1)

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var ev PopupEvent
		assert.Error(t, conn.ReadJSON(&ev))
	}
}
