package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahidursuman/flex-commerce/config"
	"github.com/sahidursuman/flex-commerce/internal/database"
	"github.com/sahidursuman/flex-commerce/internal/router"
	"github.com/sahidursuman/flex-commerce/internal/service"
	"github.com/sahidursuman/flex-commerce/pkg/alipay"
	"github.com/sahidursuman/flex-commerce/pkg/cloudinary"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db)

	gateway, err := alipay.NewClient(cfg.Alipay.Gateway, cfg.Alipay.AppID, cfg.Alipay.AppPrivateKey, cfg.Alipay.AlipayPublicKey)
	if err != nil {
		log.Fatalf("alipay: %v", err)
	}
	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	payments := service.NewPaymentService(db, gateway, cfg)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			n, err := payments.ExpireStalePayments()
			if err != nil {
				log.Printf("[payment] expire sweep: %v", err)
			} else if n > 0 {
				log.Printf("[payment] expired %d stale payments", n)
			}
		}
	}()

	engine := router.Setup(cfg, db, gateway, cloud)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
