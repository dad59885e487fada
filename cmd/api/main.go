package main

import (
	"context"
	"log"

	"github.com/Abhishek-089/Hireoo-sub001/internal/auth"
	"github.com/Abhishek-089/Hireoo-sub001/internal/billing"
	"github.com/Abhishek-089/Hireoo-sub001/internal/config"
	"github.com/Abhishek-089/Hireoo-sub001/internal/database"
	"github.com/Abhishek-089/Hireoo-sub001/internal/handlers"
	"github.com/Abhishek-089/Hireoo-sub001/internal/services"
	"github.com/Abhishek-089/Hireoo-sub001/internal/usage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	// 2. Database connection, migrations and counter triggers
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	// 3. Core services
	llmService, err := services.NewLLMService(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal(err)
	}
	matcherService := services.NewMatcherService()

	var tiers usage.TierResolver
	if cfg.StripeSecretKey != "" {
		tiers = billing.NewStripeResolver(db, cfg.StripeSecretKey, map[string]usage.Tier{
			cfg.StripePriceBasic: usage.TierBasic,
			cfg.StripePricePro:   usage.TierPro,
		})
		log.Println("✅ Stripe tier resolution enabled.")
	} else {
		tiers = billing.NewStaticResolver(db)
		log.Println("⚠️ STRIPE_SECRET_KEY not set; using stored tiers.")
	}
	usageService := usage.NewService(usage.NewStore(db), tiers)
	matchService := services.NewMatchService(db, usageService, matcherService)

	// 4. Gmail integration
	var gmailService *gmail.Service
	if cfg.DisableGmail {
		log.Println("⚠️ Gmail disabled by config; outreach sending is off.")
	} else {
		httpClient, err := auth.GetGmailClient(cfg.GmailCredentialsFile, cfg.GmailTokenFile)
		if err != nil {
			log.Printf("⚠️ Gmail client unavailable: %v", err)
		} else {
			gmailService, err = gmail.NewService(context.Background(), option.WithHTTPClient(httpClient))
			if err != nil {
				log.Printf("⚠️ Failed to create Gmail Service: %v", err)
			} else {
				log.Println("✅ Gmail Service connected successfully.")
			}
		}
	}

	// 5. Email service + reply watcher
	emailService := services.NewEmailService(db, llmService, gmailService, matchService)
	emailService.StartReplyWatcher()

	// 6. Handlers
	jwtService := auth.NewJWT(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(db, jwtService)
	limitHandler := handlers.NewLimitHandler(usageService)
	matchHandler := handlers.NewMatchHandler(llmService, matchService, emailService)

	// 7. Router & CORS
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true // For development only
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	requireAuth := auth.RequireAuth(jwtService)

	// 8. Routes
	// The extension polls this path directly; keep it stable.
	r.GET("/api/scraping/daily-limit", requireAuth, limitHandler.GetDailyLimit)

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)
		api.POST("/auth/token", authHandler.IssueToken)

		matches := api.Group("/matches", requireAuth)
		{
			matches.POST("/capture", matchHandler.CapturePost)
			matches.GET("", matchHandler.ListMatches)
			matches.GET("/:uuid", matchHandler.GetMatch)
			matches.DELETE("/:uuid", matchHandler.DeleteMatch)
			matches.POST("/:uuid/apply", matchHandler.SendOutreach)
		}
	}

	log.Printf("🚀 Server starting on %s...", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
