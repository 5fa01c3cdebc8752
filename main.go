package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

var (
	jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

	// logger defaults to a nop so package code and tests can log without
	// main having run; main swaps in the production logger.
	logger = zap.NewNop()
)

func main() {
	_ = godotenv.Load() // .env is optional

	if l, err := zap.NewProduction(); err == nil {
		logger = l
	}
	defer logger.Sync()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Lightweight migrate command: `./taskflow migrate` runs AutoMigrate and
	// seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		logger.Info("migration and seeding completed")
		return
	}

	initDB()

	r := gin.Default()
	setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	logger.Info("listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, corsHandler().Handler(r)); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// corsHandler wraps the engine with CORS rules; allowed origins come from
// CORS_ORIGINS (comma separated), defaulting to all origins.
func corsHandler() *cors.Cors {
	origins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
}
