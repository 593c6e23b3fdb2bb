package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"luckpay/database"
	"luckpay/gateways"
	"luckpay/jobs"
	"luckpay/routes"
	"luckpay/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	database.Connect()

	registry := gateways.DefaultRegistry()
	svc := services.NewPayoutService(services.NewGormStore(database.DB), registry)

	host := os.Getenv("HOST")
	port := os.Getenv("PORT")

	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3000"
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	routes.Setup(app, svc, registry)
	jobs.StartPayoutReconciler(svc)
	jobs.StartWebhookPurger()

	addr := fmt.Sprintf("%s:%s", host, port)
	log.Println("Server running at", addr)

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Panicf("Failed to start server: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Gracefully shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited cleanly")
}
