package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vidhub/internal/api"
	"vidhub/internal/config"
	"vidhub/internal/events"
	"vidhub/internal/media"
	"vidhub/internal/rpc"
	"vidhub/internal/viewguard"
	"vidhub/pkg/database"
)

func main() {
	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	if cfg.SeedPath != "" {
		if _, err := os.Stat(cfg.SeedPath); err == nil {
			data, err := database.LoadSeedFromJSON(cfg.SeedPath)
			if err != nil {
				log.Fatal(err)
			}
			users, videos, err := database.Seed(db, data)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("seeded users=%d videos=%d into %s", users, videos, cfg.DBPath)
		} else {
			log.Printf("warn: seed file %s not found; skip seeding (%v)", cfg.SeedPath, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.New(db, cfg)

	if cfg.MediaEnabled() {
		store, err := media.NewMinioStore(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatal("minio: ", err)
		}
		srv.Media = store
		log.Printf("media store: minio endpoint=%s bucket=%s", cfg.MinioEndpoint, cfg.MinioBucket)
	} else {
		log.Println("warn: MINIO_ENDPOINT not set; uploads are kept in memory")
	}

	if cfg.ViewDedupEnabled() {
		guard, err := viewguard.NewRedisGuard(ctx, cfg.RedisAddr, cfg.ViewDedupWindow)
		if err != nil {
			log.Fatal("redis: ", err)
		}
		defer guard.Close()
		srv.Guard = guard
		log.Printf("view dedup: redis addr=%s window=%s", cfg.RedisAddr, cfg.ViewDedupWindow)
	}

	// Event hub
	hub := events.NewHub()
	go hub.Run(ctx)
	srv.Hub = hub
	publishers := events.Multi{hub}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Fatal("amqp: ", err)
		}
		defer pub.Close()
		publishers = append(publishers, pub)
		log.Printf("events: publishing to amqp queue=%s", cfg.AMQPQueue)
	}
	srv.Events = publishers
	log.Println("event hub started")

	// gRPC health
	health := rpc.NewServer(db)
	go health.RunProbe(ctx, 10*time.Second)
	go func() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal("failed to listen for gRPC: ", err)
		}
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := health.GRPC.Serve(lis); err != nil {
			log.Fatal("failed to serve gRPC: ", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("HTTP API listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	health.GRPC.GracefulStop()
}
