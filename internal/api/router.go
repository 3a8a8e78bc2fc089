package api

import (
	"fmt"
	"log"
	"net/http"

	_ "github.com/kinddrop/server/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kinddrop/server/internal/api/handlers"
	"github.com/kinddrop/server/internal/api/middleware"
	"github.com/kinddrop/server/internal/config"
	"github.com/rs/cors"
)

func SetupRouter() http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	authMux := http.NewServeMux()
	authMux.HandleFunc("/sign-up", handlers.RegisterUser)
	authMux.HandleFunc("/login", handlers.LoginUser)
	// Logout only clears the cookie, so it lives on the public mux. It must
	// not sit under /api/v1/ anyway: the /api/v1/auth/ mount is the longer
	// pattern and would swallow it.
	authMux.HandleFunc("/logout", handlers.Logout)

	mainMux.Handle("/api/v1/auth/",
		http.StripPrefix("/api/v1/auth", authMux),
	)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	messageMux := http.NewServeMux()
	messageMux.HandleFunc("/status", handlers.CheckSendStatus)
	messageMux.HandleFunc("/send", handlers.SendMessage)
	messageMux.HandleFunc("/receive", handlers.ReceiveMessage)
	messageMux.HandleFunc("/mine", handlers.GetUserMessages)

	userMux := http.NewServeMux()
	userMux.HandleFunc("/me", handlers.GetMe)
	userMux.HandleFunc("/me/profile", handlers.UpdateProfile)
	userMux.HandleFunc("/me/password", handlers.ChangePassword)
	userMux.HandleFunc("/me/email", handlers.ChangeEmail)
	userMux.HandleFunc("/me/username/regenerate", handlers.RegenerateUsername)
	userMux.HandleFunc("/me/avatar", handlers.UploadAvatar)
	userMux.HandleFunc("/me/avatar/regenerate", handlers.RegenerateAvatar)

	moderationMux := http.NewServeMux()
	moderationMux.HandleFunc("/check", handlers.ModerateText)
	moderationMux.HandleFunc("/profanity", handlers.CheckProfanity)

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("/stats", handlers.AdminStats)
	adminMux.HandleFunc("/users", handlers.AdminListUsers)
	adminMux.HandleFunc("/users/update", handlers.AdminUpdateUser)
	adminMux.HandleFunc("/users/delete", handlers.AdminDeleteUser)
	adminMux.HandleFunc("/messages", handlers.AdminListMessages)
	adminMux.HandleFunc("/messages/delete", handlers.AdminDeleteMessage)

	protectedMux.Handle("/messages/",
		http.StripPrefix("/messages", messageMux),
	)
	protectedMux.Handle("/users/",
		http.StripPrefix("/users", userMux),
	)
	protectedMux.Handle("/shop/unlock", http.HandlerFunc(handlers.UnlockItem))
	protectedMux.Handle("/moderation/",
		http.StripPrefix("/moderation", moderationMux),
	)
	protectedMux.Handle("/admin/",
		http.StripPrefix("/admin", adminMux),
	)

	mainMux.Handle("/api/v1/",
		http.StripPrefix(
			"/api/v1",
			middleware.AuthMiddleware(protectedMux),
		),
	)

	log.Println("Router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(handler)
	return handler
}
