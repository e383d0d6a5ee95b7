package main

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// statEvent is one row bound for the kill log.
type statEvent struct {
	MatchID    string
	KillerID   int
	KillerName string
	VictimID   int
	VictimName string
	WeaponID   string
	At         time.Time
}

// Stats records match history into SQLite through a batched background
// writer. All methods are nil-safe so the game code never has to check
// whether recording is enabled.
type Stats struct {
	db     *sql.DB
	events chan statEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	matchID string
}

// OpenStats opens (or creates) the match-history database and starts the
// background writer.
func OpenStats(path string) (*Stats, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &Stats{
		db:     db,
		events: make(chan statEvent, 256),
		stop:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writer()
	return s, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		kill_limit INTEGER NOT NULL,
		winner_team INTEGER,
		duration REAL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS kills (
		match_id TEXT NOT NULL REFERENCES matches(id),
		killer_id INTEGER NOT NULL,
		killer_name TEXT NOT NULL,
		victim_id INTEGER NOT NULL,
		victim_name TEXT NOT NULL,
		weapon_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// StartMatch opens a new match row.
func (s *Stats) StartMatch(killLimit int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.matchID = uuid.NewString()
	id := s.matchID
	s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO matches (id, kill_limit, started_at) VALUES (?, ?, ?)`,
		id, killLimit, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("stats: match insert error: %v", err)
	}
}

// TrackKill enqueues a kill-log row. Non-blocking: when the buffer is
// full the event is dropped rather than stalling the tick.
func (s *Stats) TrackKill(killerID int, killerName string, victimID int, victimName, weaponID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	id := s.matchID
	s.mu.Unlock()
	if id == "" {
		return
	}
	select {
	case s.events <- statEvent{
		MatchID:    id,
		KillerID:   killerID,
		KillerName: killerName,
		VictimID:   victimID,
		VictimName: victimName,
		WeaponID:   weaponID,
		At:         time.Now().UTC(),
	}:
	default:
	}
}

// EndMatch finalizes the open match row.
func (s *Stats) EndMatch(winnerTeam int, duration time.Duration) {
	if s == nil {
		return
	}
	s.mu.Lock()
	id := s.matchID
	s.mu.Unlock()
	if id == "" {
		return
	}
	_, err := s.db.Exec(
		`UPDATE matches SET winner_team = ?, duration = ?, ended_at = ? WHERE id = ?`,
		winnerTeam, duration.Seconds(), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		log.Printf("stats: match update error: %v", err)
	}
}

// Close drains pending events and closes the database.
func (s *Stats) Close() {
	if s == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.db.Close()
}

// writer batches kill rows and flushes them every few seconds or when
// the batch grows large.
func (s *Stats) writer() {
	defer s.wg.Done()

	batch := make([]statEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-s.events:
			batch = append(batch, evt)
			if len(batch) >= 50 {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-s.stop:
			close(s.events)
			for evt := range s.events {
				batch = append(batch, evt)
			}
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

func (s *Stats) flush(events []statEvent) {
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("stats: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO kills
		(match_id, killer_id, killer_name, victim_id, victim_name, weapon_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("stats: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		_, err := stmt.Exec(evt.MatchID, evt.KillerID, evt.KillerName,
			evt.VictimID, evt.VictimName, evt.WeaponID, evt.At.Format(time.RFC3339))
		if err != nil {
			log.Printf("stats: insert error: %v", err)
		}
	}
	tx.Commit()
}
