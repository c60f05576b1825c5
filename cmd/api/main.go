package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accountd.org/internal/account"
	"accountd.org/internal/httpapi"
	"accountd.org/internal/obs"
	"accountd.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("ACCOUNTD_COMMIT"))

	// Postgres when a DSN is given; in-memory otherwise, for local runs.
	var (
		store account.Store
		probe httpapi.ReadyProbe
	)
	if dsn := os.Getenv("ACCOUNTD_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Print("ACCOUNTD_PG_DSN not set, using in-memory store")
		store = account.NewMemory()
	}

	secret := os.Getenv("ACCOUNTD_AUTH_SECRET")
	if secret == "" {
		log.Fatal("ACCOUNTD_AUTH_SECRET is required")
	}

	accounts, err := account.NewService(store, account.WithTokenSecret(secret))
	if err != nil {
		log.Fatalf("account service: %v", err)
	}

	api := httpapi.New(probe, version, accounts)

	addr := os.Getenv("ACCOUNTD_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting accountd %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
