package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	specWriteWait   = 10 * time.Second
	specPongWait    = 60 * time.Second
	specPingPeriod  = (specPongWait * 9) / 10
	specSendBufSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Spectator is a read-only websocket viewer. It receives the same world
// snapshots the players do, msgpack-encoded, and sends nothing back.
type Spectator struct {
	conn *websocket.Conn
	send chan []byte
}

// AddSpectator registers a viewer and starts its pumps.
func (g *Game) AddSpectator(conn *websocket.Conn) {
	s := &Spectator{
		conn: conn,
		send: make(chan []byte, specSendBufSize),
	}
	g.mu.Lock()
	g.spectators[s] = true
	g.mu.Unlock()

	go s.writePump()
	go s.readPump(g)
}

func (g *Game) removeSpectator(s *Spectator) {
	g.mu.Lock()
	delete(g.spectators, s)
	g.mu.Unlock()
}

// sendSpectatorFrameLocked encodes the snapshot once and fans it out.
// Slow viewers lose frames instead of holding the tick.
func (g *Game) sendSpectatorFrameLocked(world WorldMsg) {
	frame, err := msgpack.Marshal(world)
	if err != nil {
		log.Printf("spectator frame encode error: %v", err)
		return
	}
	for s := range g.spectators {
		select {
		case s.send <- frame:
		default:
		}
	}
}

// readPump discards inbound frames; its job is detecting disconnects.
func (s *Spectator) readPump(g *Game) {
	defer func() {
		g.removeSpectator(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(specPongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(specPongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Spectator) writePump() {
	ticker := time.NewTicker(specPingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(specWriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(specWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SetupSpectatorRoutes serves the /watch feed and a JSON /status probe.
func SetupSpectatorRoutes(g *Game) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("spectator upgrade error: %v", err)
			return
		}
		g.AddSpectator(conn)
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		status := map[string]any{
			"players":    len(g.players),
			"started":    g.started,
			"over":       g.over,
			"tick":       g.tick,
			"spectators": len(g.spectators),
		}
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	return mux
}
