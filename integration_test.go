package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"
)

// testConn is a real TCP client speaking the wire protocol.
type testConn struct {
	t    *testing.T
	conn net.Conn
	sc   *bufio.Scanner
}

func dialTest(t *testing.T, addr string) *testConn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testConn{t: t, conn: conn, sc: bufio.NewScanner(conn)}
}

func (c *testConn) sendLine(line string) {
	c.t.Helper()
	if _, err := fmt.Fprintf(c.conn, "%s\n", line); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// waitFor reads lines until one of the given type arrives.
func (c *testConn) waitFor(mtype string) map[string]any {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for c.sc.Scan() {
		var msg map[string]any
		if err := json.Unmarshal(c.sc.Bytes(), &msg); err != nil {
			continue
		}
		if msg["type"] == mtype {
			return msg
		}
	}
	c.t.Fatalf("connection closed waiting for %q: %v", mtype, c.sc.Err())
	return nil
}

func startTestServer(t *testing.T) (*Game, string) {
	t.Helper()
	game := NewGame(DefaultConfig(), ParseMap(DefaultMapLayout), nil)
	server, err := NewServer(game, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go server.Run()
	go game.Run()
	t.Cleanup(func() {
		server.Close()
		game.Stop()
	})
	return game, server.Addr().String()
}

func TestFullLobbyFlowOverTCP(t *testing.T) {
	_, addr := startTestServer(t)

	alice := dialTest(t, addr)
	alice.sendLine(`{"type":"join","name":"alice"}`)
	welcome := alice.waitFor("welcome")
	if welcome["player_id"] == nil {
		t.Fatal("welcome missing player_id")
	}

	bob := dialTest(t, addr)
	bob.sendLine(`{"type":"join","name":"bob"}`)
	bob.waitFor("welcome")

	alice.sendLine(`{"type":"select_team","team_id":0}`)
	bob.sendLine(`{"type":"select_team","team_id":1}`)
	alice.sendLine(`{"type":"ready"}`)
	bob.sendLine(`{"type":"ready"}`)

	start := alice.waitFor("game_start")
	if start["kill_limit"].(float64) != 15 {
		t.Errorf("kill_limit = %v", start["kill_limit"])
	}
	bob.waitFor("game_start")

	// The tick loop should now stream world snapshots to both.
	world := alice.waitFor("world")
	players, ok := world["players"].(map[string]any)
	if !ok || len(players) != 2 {
		t.Errorf("world snapshot carries %d players, want 2", len(players))
	}
}

func TestServerRefusesMidMatchJoin(t *testing.T) {
	_, addr := startTestServer(t)

	alice := dialTest(t, addr)
	bob := dialTest(t, addr)
	alice.sendLine(`{"type":"join","name":"alice"}`)
	alice.waitFor("welcome")
	bob.sendLine(`{"type":"join","name":"bob"}`)
	bob.waitFor("welcome")
	alice.sendLine(`{"type":"select_team","team_id":0}`)
	bob.sendLine(`{"type":"select_team","team_id":1}`)
	alice.sendLine(`{"type":"ready"}`)
	bob.sendLine(`{"type":"ready"}`)
	alice.waitFor("game_start")

	late, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer late.Close()
	late.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 1)
	if _, err := late.Read(buf); err == nil {
		t.Error("mid-match connection should be closed, got data")
	}
}

func TestMatchEndsAtKillLimitOverTCP(t *testing.T) {
	game, addr := startTestServer(t)

	alice := dialTest(t, addr)
	bob := dialTest(t, addr)
	alice.sendLine(`{"type":"join","name":"alice"}`)
	alice.waitFor("welcome")
	bob.sendLine(`{"type":"join","name":"bob"}`)
	bob.waitFor("welcome")
	alice.sendLine(`{"type":"select_team","team_id":0}`)
	bob.sendLine(`{"type":"select_team","team_id":1}`)
	alice.sendLine(`{"type":"ready"}`)
	bob.sendLine(`{"type":"ready"}`)
	alice.waitFor("game_start")

	// Push team 0 to the brink, then let one real kill decide it.
	game.mu.Lock()
	game.teamKills[0] = game.cfg.KillLimit - 1
	var victim *Player
	for _, p := range game.players {
		if p.TeamID == 1 {
			victim = p
		}
	}
	var killerID int
	for _, p := range game.players {
		if p.TeamID == 0 {
			killerID = p.ID
		}
	}
	game.killPlayerLocked(victim, killerID, "pistol", time.Now())
	game.mu.Unlock()

	over := bob.waitFor("game_over")
	if over["winner_team"].(float64) != 0 {
		t.Errorf("winner_team = %v", over["winner_team"])
	}

	select {
	case <-game.Done():
	case <-time.After(time.Second):
		t.Error("Done channel not closed after game_over")
	}
}
