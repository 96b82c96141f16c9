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

	"github.com/joho/godotenv"
	"github.com/notespace-api/internal/application/auth"
	"github.com/notespace-api/internal/application/otp"
	"github.com/notespace-api/internal/application/refresh"
	"github.com/notespace-api/internal/config"
	"github.com/notespace-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/notespace-api/internal/infrastructure/jwt"
	"github.com/notespace-api/internal/infrastructure/memory"
	"github.com/notespace-api/internal/infrastructure/smtp"
	"github.com/notespace-api/internal/secret"
	"github.com/notespace-api/internal/sweep"
	transporthttp "github.com/notespace-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	var (
		otpSecrets     secret.Store
		refreshSecrets secret.Store
		users          auth.UserStore
	)
	switch cfg.StoreDriver {
	case "dynamo":
		// Bootstrap DynamoDB tables (creates them if they don't exist).
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.DynamoTables)
		otpSecrets = dynamo.NewSecretStore(client, cfg.DynamoTables.OTPSecrets)
		refreshSecrets = dynamo.NewSecretStore(client, cfg.DynamoTables.RefreshTokens)
		users = dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
	case "memory":
		otpSecrets = memory.NewSecretStore()
		refreshSecrets = memory.NewSecretStore()
		users = memory.NewUserStore()
	default:
		log.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	otpMgr := otp.NewManager(otpSecrets, cfg.OTPTTL, cfg.OTPMaxAttempts)
	refreshMgr := refresh.NewManager(refreshSecrets, cfg.RefreshTokenTTL())
	mailer := smtp.NewMailer(cfg)

	sweeper := sweep.New(
		sweep.Task{Name: "otp", Interval: cfg.OTPSweepInterval, Run: otpMgr.Sweep},
		sweep.Task{Name: "refresh-tokens", Interval: cfg.RefreshSweepInterval, Run: refreshMgr.Sweep},
	)
	sweeper.Start()

	deps := &transporthttp.Deps{
		Users:       users,
		OTP:         otpMgr,
		Refresh:     refreshMgr,
		Mailer:      mailer,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	sweeper.Stop()
	log.Println("Server stopped")
}
