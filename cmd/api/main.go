package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/TheDamage/gestion-policial-fullstack/internal/auth"
	"github.com/TheDamage/gestion-policial-fullstack/internal/config"
	"github.com/TheDamage/gestion-policial-fullstack/internal/httpapi"
	"github.com/TheDamage/gestion-policial-fullstack/internal/obs"
	"github.com/TheDamage/gestion-policial-fullstack/internal/store/pg"
)

var version = "1.4.0"

func main() {
	// .env es opcional; en despliegues reales las variables vienen del entorno.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.SetBuildInfo(version)

	if cfg.PGDSN == "" {
		log.Fatal("GP_PG_DSN is required")
	}
	store, err := pg.Open(cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	resolver := auth.NewResolver(store.Roles(context.Background()), func(permission, role string, overrideAllows, roleSetAllows bool) {
		obs.LogJSON("warn", "permission_override_conflict", map[string]any{
			"permission":      permission,
			"role":            role,
			"override_allows": overrideAllows,
			"role_set_allows": roleSetAllows,
		})
	})

	svc, err := auth.NewService(store, issuer, resolver,
		auth.WithSessionTTL(cfg.SessionTTL),
		auth.WithAuditFailureLog(func(event string, err error) {
			obs.LogJSON("warn", "audit_append_failed", map[string]any{
				"event": event,
				"error": err.Error(),
			})
		}),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	probe := httpapi.ReadyProbe{DB: store.DB()}
	api := httpapi.New(svc, probe, version,
		httpapi.WithLoginRateLimit(cfg.LoginRatePerMin, cfg.LoginRateBurst),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting gestion-policial-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Listener gRPC opcional para health checks de infraestructura.
	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv = grpc.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcSrv, httpapi.NewGRPCHealthServer(probe))
		log.Printf("gRPC health on %s", cfg.GRPCAddr)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	_ = store.Close()
	log.Println("Stopped")
}
