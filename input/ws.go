package input

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// frameStaleAfter is how long a landmark frame stays valid without a fresh
// message; past it Poll reports no hands so synthetic pointers are dropped
// instead of freezing mid-gesture when the detector dies.
const frameStaleAfter = 500 * time.Millisecond

// wsFrame is the wire format pushed by the external hand detector.
type wsFrame struct {
	Hands []Hand `json:"hands"`
}

// WSLandmarkSource reads landmark frames from a detector over a websocket.
// A reader goroutine keeps only the latest frame; Poll never blocks.
type WSLandmarkSource struct {
	conn *websocket.Conn

	mu       sync.Mutex
	latest   []Hand
	received time.Time
}

// DialLandmarkSource connects to the detector endpoint and starts the
// reader.
func DialLandmarkSource(url string) (*WSLandmarkSource, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("input: dialing landmark source %s: %w", url, err)
	}

	s := &WSLandmarkSource{conn: conn}
	go s.readLoop()
	return s, nil
}

func (s *WSLandmarkSource) readLoop() {
	for {
		var frame wsFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			slog.Warn("landmark stream closed", "error", err)
			s.mu.Lock()
			s.latest = nil
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.latest = frame.Hands
		s.received = time.Now()
		s.mu.Unlock()
	}
}

// Poll returns the most recent hands, or nothing when the stream is stale.
func (s *WSLandmarkSource) Poll() []Hand {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.received) > frameStaleAfter {
		return nil
	}
	return s.latest
}

// Close shuts the connection down; the reader goroutine exits on its own.
func (s *WSLandmarkSource) Close() error {
	return s.conn.Close()
}
