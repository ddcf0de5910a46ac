package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/netphils/cefdetector-standalone/internal/config"
	"github.com/netphils/cefdetector-standalone/internal/fixture"
	"github.com/netphils/cefdetector-standalone/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	catalogPath := flag.String("fixture", "", "Override fixture catalog path")
	port := flag.Int("port", 0, "Override server port")
	failCount := flag.Bool("fail-count", false, "Fail every count request")
	failAnalysis := flag.Bool("fail-analysis", false, "Fail every analysis halfway through")
	genToken := flag.Bool("gen-token", false, "Print a random auth token and exit")
	flag.Parse()

	if *genToken {
		tok, err := config.GenerateToken()
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *catalogPath != "" {
		cfg.Fixture.Path = *catalogPath
	}
	cfg.Fixture.FailCount = cfg.Fixture.FailCount || *failCount
	cfg.Fixture.FailAnalysis = cfg.Fixture.FailAnalysis || *failAnalysis

	catalog := fixture.DefaultCatalog()
	if cfg.Fixture.Path != "" {
		catalog, err = fixture.LoadCatalog(cfg.Fixture.Path)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		log.Printf("Replaying %s: %d installed, %d browser runtimes", cfg.Fixture.Path, catalog.Installed, len(catalog.Items))
	} else {
		log.Printf("Replaying built-in catalog: %d installed, %d browser runtimes", catalog.Installed, len(catalog.Items))
	}

	broadcaster := ws.NewBroadcaster(cfg.Server.MaxConnections)
	defer broadcaster.Stop()

	replayer := fixture.NewReplayer(catalog, broadcaster, fixture.Options{
		ItemDelay:    cfg.Fixture.ItemDelay,
		FailCount:    cfg.Fixture.FailCount,
		FailAnalysis: cfg.Fixture.FailAnalysis,
	})
	server := ws.NewServer(replayer, broadcaster, cfg.Server.AllowedOrigins, cfg.Server.AuthToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ws.ListenAndServe(ctx, cfg.Addr(), server.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shutting down...")
}
