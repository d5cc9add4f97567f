package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"curator-lite/apps/server/internal/gateway"
	"curator-lite/apps/server/internal/ledger"
	"curator-lite/apps/server/internal/lobby"
	"curator-lite/content"
)

const (
	defaultAddr    = ":8080"
	reapInterval   = time.Minute
	defaultIdleTTL = 10 * time.Minute
)

func main() {
	bundle, err := content.Load(os.Getenv("CURATOR_ECONOMY_PATH"))
	if err != nil {
		log.Fatalf("[Server] Failed to load content: %v", err)
	}
	ledgerService, ledgerMode, err := ledger.NewServiceFromEnv("")
	if err != nil {
		log.Fatalf("[Server] Failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	lby := lobby.New(bundle, ledgerService, envInt64("CURATOR_SEED", 0))
	gw := gateway.New(lby)
	auditHTTP := ledger.NewHTTPHandler(ledgerService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lby.RunReaper(ctx, reapInterval, envDuration("CURATOR_IDLE_TTL", defaultIdleTTL))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	auditHTTP.RegisterRoutes(mux)

	addr := strings.TrimSpace(os.Getenv("CURATOR_ADDR"))
	if addr == "" {
		addr = defaultAddr
	}
	log.Printf("[Server] Content: %d cars, %d events", bundle.Cars.CarCount(), len(bundle.Events))
	log.Printf("[Server] Ledger mode: %s", ledgerMode)
	log.Printf("[Server] Starting WebSocket server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}

func envInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
