package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/audit"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/auth"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/breach"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/config"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/httpapi"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/obs"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/reports"
)

var version = "0.3.1"

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("GIT_COMMIT"))

	cfg := config.MustLoad(*configPath)

	db, err := sql.Open("pgx", cfg.DB.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	store := auth.NewPGStore(db)
	authSvc, err := auth.NewService(store,
		auth.WithSigningSecret(cfg.Auth.JWTSecret),
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAccessTTL(cfg.Auth.AccessTTL),
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	checker := breach.NewChecker(&http.Client{Timeout: cfg.Breach.Timeout}, cfg.Breach.Endpoint)
	auditLog := audit.NewLogger(store.Events(context.Background()))
	reportStore := reports.NewPGStore(db)

	api := httpapi.New(authSvc, checker, reportStore, auditLog,
		httpapi.ReadyProbe{DB: db}, version,
		httpapi.WithCORSOrigins(cfg.HTTP.AllowedOrigins),
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting sen-alerte-auth %s on %s", version, srv.Addr)

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
	_ = db.Close()
	log.Println("Stopped")
}
