package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net"
	"sync"
	"time"
)

const (
	writeWait         = 10 * time.Second
	maxLineLen        = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120
)

// Client is one TCP player connection: a reader goroutine feeding the
// dispatcher and a writer goroutine draining a bounded send buffer.
type Client struct {
	conn     net.Conn
	game     *Game
	playerID int

	send chan []byte
	done chan struct{}
	once sync.Once

	msgCount   int
	msgResetAt time.Time
}

// NewClient wraps an accepted connection. The caller sets playerID after
// admission and before starting the pumps.
func NewClient(game *Game, conn net.Conn) *Client {
	return &Client{
		conn: conn,
		game: game,
		send: make(chan []byte, sendBufSize),
		done: make(chan struct{}),
	}
}

// Close shuts the connection down once; safe from any goroutine.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// SendJSON marshals msg as one wire line and queues it.
func (c *Client) SendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(append(data, '\n'))
}

// SendRaw queues an already-framed line. Non-blocking: when the buffer
// is full the message is dropped so a stalled client cannot hold the
// tick loop.
func (c *Client) SendRaw(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// ReadPump reads newline-delimited messages until the connection drops,
// the rate limit trips, or the dispatcher asks for a close.
func (c *Client) ReadPump() {
	defer func() {
		c.game.RemovePlayer(c.playerID)
		c.Close()
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, maxLineLen), maxLineLen)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.conn.RemoteAddr())
			return
		}

		if err := c.game.Dispatch(c.playerID, line); err != nil {
			log.Printf("closing %s: %v", c.conn.RemoteAddr(), err)
			return
		}
	}
}

// WritePump drains the send buffer onto the socket.
func (c *Client) WritePump() {
	defer c.Close()
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := c.conn.Write(data); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
