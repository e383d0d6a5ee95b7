package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	addr := flag.String("addr", ":5555", "TCP listen address")
	httpAddr := flag.String("http", "", "HTTP address for the spectator feed (empty = disabled)")
	teams := flag.Int("teams", 3, "number of teams")
	maxPlayers := flag.Int("max-players", 6, "maximum players in the lobby")
	tickRate := flag.Int("tick", 20, "simulation ticks per second")
	killLimit := flag.Int("kill-limit", KillLimit, "team kills needed to win")
	mapPath := flag.String("map", "", "path to a map layout file (empty = built-in map)")
	dbPath := flag.String("db", "", "path to a SQLite match-history database (empty = disabled)")
	password := flag.String("password", "", "join password (empty = open server)")
	printQR := flag.Bool("qr", false, "print the join address as a terminal QR code")
	flag.Parse()

	cfg := DefaultConfig()
	cfg.NumTeams = *teams
	cfg.MaxPlayers = *maxPlayers
	cfg.TickRate = *tickRate
	cfg.KillLimit = *killLimit
	if *password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("password hash: %v", err)
		}
		cfg.PassHash = hash
	}

	gmap := ParseMap(DefaultMapLayout)
	if *mapPath != "" {
		m, err := LoadMap(*mapPath)
		if err != nil {
			log.Fatalf("load map %s: %v", *mapPath, err)
		}
		gmap = m
	}

	var stats *Stats
	if *dbPath != "" {
		s, err := OpenStats(*dbPath)
		if err != nil {
			log.Fatalf("open stats db %s: %v", *dbPath, err)
		}
		stats = s
		defer stats.Close()
	}

	game := NewGame(cfg, gmap, stats)
	go game.Run()

	server, err := NewServer(game, *addr)
	if err != nil {
		log.Fatalf("listen on %s: %v", *addr, err)
	}
	go server.Run()
	log.Printf("arena server listening on %s (%d teams, %d players, %d Hz)",
		server.Addr(), cfg.NumTeams, cfg.MaxPlayers, cfg.TickRate)

	if *printQR {
		printJoinQR(server.Addr())
	}

	if *httpAddr != "" {
		mux := SetupSpectatorRoutes(game)
		go func() {
			log.Printf("spectator feed on http://%s/watch", *httpAddr)
			if err := http.ListenAndServe(*httpAddr, mux); err != nil {
				log.Fatalf("spectator http: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("Shutting down...")
	case <-game.Done():
		log.Println("Match over, shutting down...")
	}

	server.Close()
	game.Stop()
}

// printJoinQR renders the join address as a terminal QR code so LAN
// players can scan it instead of typing an ip:port.
func printJoinQR(addr net.Addr) {
	target := addr.String()
	if host, port, err := net.SplitHostPort(target); err == nil && (host == "" || host == "::") {
		if ip := outboundIP(); ip != "" {
			target = net.JoinHostPort(ip, port)
		}
	}
	qr, err := qrcode.New(target, qrcode.Medium)
	if err != nil {
		log.Printf("qr encode: %v", err)
		return
	}
	log.Printf("join address: %s\n%s", target, qr.ToSmallString(false))
}

// outboundIP finds the LAN-facing local address, if any.
func outboundIP() string {
	conn, err := net.Dial("udp", "192.0.2.1:1")
	if err != nil {
		return ""
	}
	defer conn.Close()
	if a, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return a.IP.String()
	}
	return ""
}
