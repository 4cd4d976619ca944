package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"mealplan-backend/internal/admin"
	"mealplan-backend/internal/auth"
	"mealplan-backend/internal/config"
	"mealplan-backend/internal/engine"
	"mealplan-backend/internal/instrument"
	"mealplan-backend/internal/resources"
	"mealplan-backend/internal/storage"
	"mealplan-backend/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s)", cfg.Server.Port, cfg.Database.Driver)

	// 2. Connect to database unless running purely in memory
	var persister store.Persister
	if !cfg.Database.IsMemory() {
		db, err := store.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Printf("Database connected (%s)", db.Dialect.Name())

		if err := db.Bootstrap(ctx); err != nil {
			log.Fatalf("Failed to bootstrap record table: %v", err)
		}
		persister = db
	} else {
		log.Println("WARN: running with in-memory collections, data is not persisted")
	}

	// 3. Load collections
	collections := store.NewCollections(persister)
	if err := collections.Load(ctx); err != nil {
		log.Fatalf("Failed to load collections: %v", err)
	}

	// 4. Register resource schemas and seed empty collections
	reg := resources.NewRegistry()
	if cfg.Seed.Dir != "" {
		if _, err := storage.NewLocalStorage(cfg.Seed.Dir).Seed(ctx, collections, reg.AllSchemas()); err != nil {
			log.Printf("WARN: Failed to seed collections: %v", err)
		}
	}

	// 5. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
		Immutable:    true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORS.AllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + cfg.Scope.Header,
		ExposeHeaders: engine.TotalCountHeader + ", X-Trace-ID",
	}))

	// 6. Request tracing
	app.Use(instrument.Middleware(cfg.Instrumentation, &instrument.LogSink{}))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Auth (optional) and scope middleware for resource routes
	var middleware []fiber.Handler
	if cfg.Auth.Enabled {
		middleware = append(middleware, auth.AuthMiddleware(cfg.Auth.JWTSecret))
	}
	middleware = append(middleware, auth.ScopeMiddleware(cfg.Scope.Header))

	// 9. Schema introspection (admin role required when auth is on)
	adminMW := append([]fiber.Handler{}, middleware...)
	if cfg.Auth.Enabled {
		adminMW = append(adminMW, auth.RequireAdmin())
	}
	adminHandler := admin.NewHandler(collections, reg)
	admin.RegisterAdminRoutes(app, adminHandler, adminMW...)

	// 10. Register resource routes
	defaults := engine.QueryDefaults{Skip: cfg.Query.DefaultSkip, Limit: cfg.Query.DefaultLimit}
	handler := engine.NewHandler(collections, reg, defaults)
	engine.RegisterDynamicRoutes(app, handler, middleware...)

	// 11. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}
