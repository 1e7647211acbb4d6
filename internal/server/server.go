package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/salesjourney/backend/internal/config"
	"github.com/salesjourney/backend/internal/database"
	"github.com/salesjourney/backend/internal/events"
	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/repositories"
	"github.com/salesjourney/backend/internal/routes"
	"github.com/salesjourney/backend/internal/services"
)

// Server owns the long-lived resources that must be released on shutdown.
type Server struct {
	HTTP      *http.Server
	scheduler *services.Scheduler
	publisher events.Publisher
}

func NewServer() *Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	pool, err := database.Connect()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(pool); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Redis is optional; without it the CRM user directory is fetched
	// fresh on every request.
	var redisRepo *repositories.RedisRepository
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to Redis at %s: %v", addr, err)
		}
		log.Println("Connected to Redis successfully")
		redisRepo = repositories.NewRedisRepository(rdb)
	}

	publisher := events.NewFromEnv()
	amoCfg := config.AmoCRMFromEnv()

	// Dependency injection
	userRepo := repositories.NewUserRepository(pool)
	companyRepo := repositories.NewCompanyRepository(pool)
	partnerRepo := repositories.NewPartnerRepository(pool)
	amoRepo := repositories.NewAmoCRMRepository(pool)
	statsRepo := repositories.NewStatsRepository(pool)
	gamRepo := repositories.NewGamificationRepository(pool)
	challengeRepo := repositories.NewChallengeRepository(pool)
	shopRepo := repositories.NewShopRepository(pool)
	feedRepo := repositories.NewFeedRepository(pool)
	achRepo := repositories.NewAchievementRepository(pool)

	authService := services.NewAuthService(userRepo, companyRepo, gamRepo)
	userService := services.NewUserService(userRepo, gamRepo, achRepo, statsRepo, amoRepo, shopRepo)
	adminService := services.NewAdminService(userRepo, companyRepo, partnerRepo, gamRepo, shopRepo, achRepo)
	partnerService := services.NewPartnerService(partnerRepo, companyRepo, userRepo, gamRepo, statsRepo)
	crmService := services.NewAmoCRMService(amoCfg, amoRepo, userRepo, statsRepo, gamRepo, achRepo, redisRepo)
	gameService := services.NewGamificationService(gamRepo, challengeRepo, userRepo)
	challengeService := services.NewChallengeService(challengeRepo)
	shopService := services.NewShopService(shopRepo, gamRepo, feedRepo, userRepo, publisher)
	feedService := services.NewFeedService(feedRepo, userRepo, publisher)
	webhookService := services.NewWebhookService(amoRepo, gamRepo, challengeRepo, userRepo, feedRepo, redisRepo, publisher)
	rewardService := services.NewRewardService(gamRepo, statsRepo, userRepo, publisher)

	// Bootstrap data on an empty database.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := adminService.Seed(ctx); err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
	}

	scheduler := services.NewScheduler(rewardService)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("FRONTEND_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		User:    handlers.NewUserHandler(userService),
		Admin:   handlers.NewAdminHandler(adminService),
		Partner: handlers.NewPartnerHandler(partnerService, challengeService),
		CRM:     handlers.NewCRMHandler(crmService),
		Game:    handlers.NewGameHandler(gameService, challengeService),
		Shop:    handlers.NewShopHandler(shopService),
		Feed:    handlers.NewFeedHandler(feedService, partnerService),
		Webhook: handlers.NewWebhookHandler(webhookService),
	}, userRepo, partnerService)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &Server{
		HTTP:      httpServer,
		scheduler: scheduler,
		publisher: publisher,
	}
}

// Shutdown stops the HTTP listener, the cron jobs and the event publisher.
func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	if err := s.publisher.Close(); err != nil {
		log.Printf("publisher close: %v", err)
	}
	return s.HTTP.Shutdown(ctx)
}
