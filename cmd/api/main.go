package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"group-calendar/internal/platform/logger"
	"group-calendar/internal/router"
)

// @title        Group Calendar API
// @version      1.0
// @description  Calendario grupal con eventos versionados, constraints Hard/Soft, ventanas DND y change requests.
// @BasePath     /
func main() {
	// .env es opcional; en prod las vars vienen del entorno.
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: nil, // sin verifier para modo dev
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
