package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/kinddrop/server/internal/api"
	"github.com/kinddrop/server/internal/api/services"
	"github.com/kinddrop/server/internal/config"
	"github.com/kinddrop/server/internal/repositories"
)

// @title KindDrop API
// @version 1.0
// @description Anonymous one-per-day encouragement messages with a points shop.
// @BasePath /
func main() {
	// Connect to database
	repositories.ConnectDatabase()

	avatarCfg := config.Envs.AvatarStore
	if avatarCfg.AccountID != "" {
		err := repositories.InitAvatarStore(
			avatarCfg.AccessKeyID,
			avatarCfg.SecretAccessKey,
			avatarCfg.AccountID,
			avatarCfg.BucketName,
			avatarCfg.Region,
			avatarCfg.PublicBaseURL,
		)
		if err != nil {
			log.Fatalf("Could not initialize avatar store: %v", err)
		}
	} else {
		log.Println("Avatar store not configured, uploads disabled")
	}

	if err := services.Init(); err != nil {
		log.Fatalf("Could not initialize services: %v", err)
	}

	mux := api.SetupRouter()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Envs.Port),
		Handler: mux,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting KindDrop server on port: %s", config.Envs.Port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on port %s: %v", config.Envs.Port, err)
	}
}
