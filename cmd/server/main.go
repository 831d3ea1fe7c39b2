package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"batchchat/infrastructure/cache"
	"batchchat/infrastructure/db"
	"batchchat/infrastructure/ws"
	httpHandler "batchchat/internal/delivery/http"
	"batchchat/internal/delivery/websocket"
	"batchchat/internal/repository"
	"batchchat/internal/usecase"
	"batchchat/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("godotenv: error loading .env file")
	}

	ctx := context.Background()

	// Repositories: MongoDB when a URI is configured, otherwise the
	// in-memory implementations (single-process, useful for development).
	var (
		userRepo         repository.UserRepository
		messageRepo      repository.MessageRepository
		refreshTokenRepo repository.RefreshTokenRepository
	)

	mongoDbHost := os.Getenv("MONGODB_URI")
	if mongoDbHost != "" {
		mongoDbName := os.Getenv("MONGODB_DATABASE")
		if mongoDbName == "" {
			mongoDbName = "batchchat"
		}
		mongoDb, err := db.NewMongoStore(ctx, mongoDbHost, mongoDbName)
		if err != nil {
			panic(err)
		}

		log.Println("Connected to MongoDB")

		if err := repository.EnsureMessageIndexes(ctx, *mongoDb.DB); err != nil {
			log.Printf("Warning: could not create message indexes: %v", err)
		}

		userRepo = repository.NewUserRepository(*mongoDb.DB)
		messageRepo = repository.NewMessageRepository(*mongoDb.DB)
		refreshTokenRepo = repository.NewRefreshTokenRepository(*mongoDb.DB)
	} else {
		log.Println("MONGODB_URI not set, using in-memory storage (data is lost on restart)")

		userRepo = repository.NewMemoryUserRepository()
		messageRepo = repository.NewMemoryMessageRepository()
		refreshTokenRepo = repository.NewMemoryRefreshTokenRepository()
	}

	// Initialize JWT manager
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-this-in-production" // Default for development
		log.Println("Warning: Using default JWT secret. Set JWT_SECRET in .env for production")
	}

	// Access token: 15 minutes, Refresh token: 30 days
	jwtManager := jwt.NewJWTManager(jwtSecret, 15*time.Minute, 30*24*time.Hour)

	memCache := cache.NewMemCache(time.Minute)
	defer memCache.Close()

	broker := ws.NewMemoryBroker()
	go broker.Run()

	log.Println("Websocket broker is running")

	// Initialize use cases
	authUc := usecase.NewAuthUsecase(userRepo, refreshTokenRepo, jwtManager)
	userUc := usecase.NewUserUsecase(userRepo, memCache)
	router := usecase.NewConversationRouter(broker)
	chatUc := usecase.NewChatUsecase(userUc, messageRepo, router)
	historyUc := usecase.NewHistoryUsecase(messageRepo, userUc)

	// CORS middleware
	mux := chi.NewRouter()
	mux.Use(middleware.Logger)
	mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Initialize handlers
	websocketH := websocket.NewWebsocketHandler(broker, authUc, chatUc)
	messageH := httpHandler.NewMessageHandler(historyUc)
	authH := httpHandler.NewAuthHandler(authUc)
	authMiddleware := httpHandler.NewAuthMiddleware(authUc)

	// Map routes
	httpHandler.MapHttpRoutes(mux, *messageH, *websocketH, *authH, authMiddleware)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP server is running on :%s", port)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}
