package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/cart"
	"github.com/idturva/subscription-portal/internal/config"
	"github.com/idturva/subscription-portal/internal/database"
	"github.com/idturva/subscription-portal/internal/handler"
	"github.com/idturva/subscription-portal/internal/middleware"
	"github.com/idturva/subscription-portal/internal/queue"
	"github.com/idturva/subscription-portal/internal/repository"
	"github.com/idturva/subscription-portal/internal/router"
	"github.com/idturva/subscription-portal/internal/service"
)

func main() {
	// .env is a dev convenience; in production the variables come from the
	// environment and the file simply does not exist.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it rate limiting and the response cache
	// degrade to pass-through.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	packages := repository.NewPackageRepo(db)
	orders := repository.NewOrderRepo(db)

	carts := cart.NewStore(time.Duration(cfg.CartTTLMin) * time.Minute)
	hub := queue.NewHub()
	mailer := service.NewMailer(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(cfg, packages)
	cartH := handler.NewCartHandler(carts, packages)
	checkoutH := handler.NewCheckoutHandler(cfg, carts, orders, hub)
	confirmH := handler.NewConfirmHandler(orders, hub)
	orderH := handler.NewOrderHandler(orders)
	adminH := handler.NewAdminHandler(cfg, users, tokens, orders, hub)

	e := echo.New()
	e.HideBanner = true

	// Throttling covers the abuse-prone surfaces only: checkout,
	// confirmation-token and credential endpoints. Browsing stays unmetered.
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limit)
	router.RegisterPublic(e, publicH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterCart(e, cartH)
	router.RegisterCheckout(e, checkoutH, confirmH, cfg.JWTSecret, limit)
	router.RegisterCustomer(e, orderH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Broker consumers run for the lifetime of the process and reconnect on
	// their own; a down broker delays email, it never blocks checkout.
	go queue.StartOrderCreatedConsumer(mailer)
	go queue.StartOrderConfirmedLogger()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
