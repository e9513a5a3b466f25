package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/serhatk/campus-occupancy/internal/config"
	"github.com/serhatk/campus-occupancy/internal/database"
	"github.com/serhatk/campus-occupancy/internal/handler"
	"github.com/serhatk/campus-occupancy/internal/queue"
	"github.com/serhatk/campus-occupancy/internal/repository"
	"github.com/serhatk/campus-occupancy/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use env vars

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; features degrade

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	locationRepo := repository.NewLocationRepo(db)
	deskRepo := repository.NewDeskRepo(db)
	checkInRepo := repository.NewCheckInRepo(db)
	densityLogRepo := repository.NewDensityLogRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	checkInHandler := handler.NewCheckInHandler(cfg, checkInRepo, deskRepo, locationRepo)
	locationHandler := handler.NewLocationHandler(locationRepo, deskRepo)
	densityHandler := handler.NewDensityHandler(locationRepo, densityLogRepo)

	// Background consumer: drains the occupancy queues into logs/.
	go func() {
		if err := queue.StartOccupancyConsumer(); err != nil {
			log.Printf("occupancy consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, locationHandler, densityHandler, rdb)
	router.RegisterOccupancy(e, checkInHandler, densityHandler, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
