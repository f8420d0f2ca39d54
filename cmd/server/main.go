package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dikshantyadav2006/library-seat-backend/internal/clock"
	"github.com/dikshantyadav2006/library-seat-backend/internal/config"
	"github.com/dikshantyadav2006/library-seat-backend/internal/database"
	"github.com/dikshantyadav2006/library-seat-backend/internal/engine"
	"github.com/dikshantyadav2006/library-seat-backend/internal/handler"
	"github.com/dikshantyadav2006/library-seat-backend/internal/middleware"
	"github.com/dikshantyadav2006/library-seat-backend/internal/queue"
	"github.com/dikshantyadav2006/library-seat-backend/internal/repository"
	"github.com/dikshantyadav2006/library-seat-backend/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, grid caching and rate limiting disabled")
	}

	clk := clock.System()

	bookingRepo := repository.NewBookingRepo(db)
	protectionRepo := repository.NewProtectionRepo(db)
	blockRepo := repository.NewBlockRepo(db)
	userRepo := repository.NewUserRepo(db)

	resolver := engine.NewResolver(bookingRepo, protectionRepo, blockRepo, clk)
	coordinator := engine.NewCoordinator(bookingRepo, protectionRepo, resolver, clk, cfg.Location, cfg.TotalSeats)
	protections := engine.NewProtectionManager(protectionRepo, resolver, clk, cfg.Location, cfg.TotalSeats, cfg.ProtectionWindowDays)
	blocks := engine.NewBlockManager(bookingRepo, blockRepo, clk, cfg.TotalSeats)
	grid := engine.NewGrid(bookingRepo, protectionRepo, blockRepo, clk, rdb, cfg.GridCacheTTL)
	reaper := engine.NewReaper(protectionRepo, clk, cfg.ReaperInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reaper.Run(ctx)
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)
	seatHandler := handler.NewSeatHandler(grid, clk, cfg.Location, cfg.TotalSeats)
	bookingHandler := handler.NewBookingHandler(coordinator, grid)
	protectionHandler := handler.NewProtectionHandler(protections, reaper, grid)
	adminHandler := handler.NewAdminHandler(coordinator, blocks, grid)

	rl := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, seatHandler, cfg.JWTSecret)
	router.RegisterMember(e, bookingHandler, protectionHandler, cfg.JWTSecret, rl)
	router.RegisterAdmin(e, adminHandler, protectionHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, seats=%d)", addr, cfg.Env, cfg.TotalSeats)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
