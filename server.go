package main

import (
	"errors"
	"log"
	"net"
)

// Server accepts TCP player connections and hands them to the game.
type Server struct {
	game     *Game
	listener net.Listener
}

// NewServer starts listening on addr.
func NewServer(game *Game, addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{game: game, listener: ln}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Run accepts connections until the listener is closed. Connections that
// arrive while the server is full or a match is running are closed
// immediately; the lobby is the only way in.
func (s *Server) Run() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("accept error: %v", err)
			continue
		}

		client := NewClient(s.game, conn)
		id, ok := s.game.Admit(client)
		if !ok {
			conn.Close()
			continue
		}
		client.playerID = id

		log.Printf("connection from %s as player %d", conn.RemoteAddr(), id)
		go client.WritePump()
		go client.ReadPump()
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}
