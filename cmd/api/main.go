package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Blekysha/project-x-backend/internal/auth"
	"github.com/Blekysha/project-x-backend/internal/httpapi"
	"github.com/Blekysha/project-x-backend/internal/obs"
	"github.com/Blekysha/project-x-backend/internal/store/pg"
	"github.com/Blekysha/project-x-backend/internal/tracker"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// Инициализация observability (регистрация метрик, JSON-логгер и т.п.)
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("PROJECTX_AUTH_SECRET")
	codec, err := auth.NewCodec(secret)
	if err != nil {
		log.Fatalf("auth codec: %v", err)
	}

	// Хранилище: postgres при заданном DSN, иначе in-memory (dev режим)
	var (
		store tracker.Store
		probe httpapi.ReadyProbe
	)
	if dsn := os.Getenv("PROJECTX_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Println("PROJECTX_PG_DSN not set, using in-memory store")
		store = tracker.NewInMemory()
	}

	svc, err := tracker.NewService(store)
	if err != nil {
		log.Fatalf("tracker service: %v", err)
	}

	api := httpapi.New(svc, codec, probe, version)
	if burst, perSec := intEnv("PROJECTX_RATE_BURST"), intEnv("PROJECTX_RATE_PER_SEC"); burst > 0 || perSec > 0 {
		api.SetRateLimit(burst, perSec)
	}

	addr := os.Getenv("PROJECTX_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(), // уже обёрнут метриками в httpapi
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting project-x-api %s on %s", version, srv.Addr)

	// graceful shutdown
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

func intEnv(name string) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0
	}
	return v
}
