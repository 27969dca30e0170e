package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/bson"

	"postpilot/api/router"
	"postpilot/config"
	"postpilot/crawler"
	"postpilot/db"
	_ "postpilot/docs" // swagger spec registration
	"postpilot/generator"
	"postpilot/llm"
	"postpilot/logger"
	"postpilot/orchestrator"
	"postpilot/renderer"
	"postpilot/repositories"
	"postpilot/services"
)

// @title           PostPilot Competitor Analysis API
// @version         1.0
// @description     Ingest competitor content, analyze it and generate config drafts
// @BasePath        /api/v1
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		log.Fatalf("mongo init: %v", err)
	}

	var llmClient llm.Client
	switch cfg.LLM.Provider {
	case "google":
		client, err := llm.NewGemini(ctx, cfg.LLM)
		if err != nil {
			log.Fatalf("llm init: %v", err)
		}
		llmClient = client
	default:
		log.Fatalf("unknown llm provider: %q", cfg.LLM.Provider)
	}

	analysesRepo := repositories.NewAnalysisRepository(db.Database())
	configsRepo := repositories.NewGeneratedConfigRepository(db.Database())

	var pageRenderer crawler.Renderer
	if cfg.Crawler.EnableRendering {
		pageRenderer = renderer.New()
	}
	blogCrawler := crawler.New(cfg.Crawler, pageRenderer)

	analysisTimeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	orch := orchestrator.New(analysesRepo, llmClient, analysisTimeout)
	stage := generator.New(llmClient, configsRepo, cfg.Generation.MaxRequiredHashtags, analysisTimeout)

	analysisSvc := services.NewAnalysisService(analysesRepo, configsRepo, blogCrawler, orch.Launch)
	generationSvc := services.NewGenerationService(analysesRepo, configsRepo, stage)

	mongoPing := func(ctx context.Context) error {
		return db.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}
	r := router.New(analysisSvc, generationSvc, mongoPing)

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-User-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Span-Id"},
		AllowCredentials: false,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           corsWrapper.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.InfoWithFields("api listening", logger.Fields{"addr": cfg.Server.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
