// Package main is the application entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/collector"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/extractor"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/handler"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/middleware"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/pipeline"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/repository"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/service"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/database"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/es"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/kafka"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Initialize configuration
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. Initialize logger
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized successfully")

	// 3. Initialize infrastructure
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.RawFile{}, &model.ProcessedContent{}, &model.CuratedDataset{}); err != nil {
		log.Fatal("failed to migrate database schema", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("failed to initialize Elasticsearch: %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. Initialize repositories
	fileRepo := repository.NewFileRepository(database.DB, database.RDB)
	datasetRepo := repository.NewDatasetRepository(database.DB)

	// 5. Initialize services (dependency injection)
	blobs := storage.NewMinIOStore(cfg.MinIO)

	// External collection is optional; without an API key the pipeline runs
	// with collection disabled.
	var coll collector.Collector
	gemini, err := collector.NewGeminiCollector(context.Background(), cfg.Collector, database.RDB)
	switch {
	case err == nil:
		coll = gemini
		defer gemini.Close()
	case err == errs.ErrCollectorUnavailable:
		log.Info("external data collector not configured, collection disabled")
	default:
		log.Fatal("failed to create external data collector", err)
	}

	ingestService, err := service.NewIngestService(fileRepo, blobs, kafka.ProduceTask, coll, cfg.Upload)
	if err != nil {
		log.Fatal("failed to create ingest service", err)
	}
	defer ingestService.Close()
	curationService := service.NewCurationService(datasetRepo, fileRepo)
	searchService := service.NewSearchService(cfg.Elasticsearch)

	// 6. Initialize the processing pipeline
	chains := extractor.NewSet(cfg.Extraction)
	indexFn := func(ctx context.Context, doc model.ContentDocument) error {
		return es.IndexContent(ctx, cfg.Elasticsearch.IndexName, doc)
	}
	processor := pipeline.NewProcessor(fileRepo, blobs, chains, coll, indexFn, kafka.ProduceTask, cfg.Worker)

	// 7. Start the background consumer pool
	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()
	go kafka.StartConsumers(consumerCtx, cfg.Kafka, cfg.Worker.PoolSize, processor)

	// 8. Set Gin mode and create the router
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. Register routes
	fileHandler := handler.NewFileHandler(ingestService, searchService)
	datasetHandler := handler.NewDatasetHandler(curationService)

	apiV1 := r.Group("/api/v1")
	{
		files := apiV1.Group("/files")
		{
			files.POST("", fileHandler.Upload)
			files.POST("/bulk", fileHandler.BulkUpload)
			files.GET("/supported-types", fileHandler.SupportedTypes)
			files.GET("/search", fileHandler.Search)
			files.GET("/batches/:id", fileHandler.BatchReport)
			files.GET("/:id/status", fileHandler.Status)
			files.POST("/:id/cancel", fileHandler.Cancel)
			files.POST("/:id/collect", fileHandler.Collect)
		}

		datasets := apiV1.Group("/datasets")
		{
			datasets.POST("", datasetHandler.Create)
			datasets.GET("", datasetHandler.List)
			datasets.GET("/:id", datasetHandler.Get)
			datasets.PUT("/:id", datasetHandler.Update)
			datasets.POST("/:id/approve", datasetHandler.Approve)
			datasets.GET("/:id/preview", datasetHandler.Preview)
			datasets.GET("/:id/approved-text", datasetHandler.ApprovedText)
			datasets.POST("/:id/revisions", datasetHandler.CreateRevision)
		}
	}

	// Start the HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop the consumer pool first so no new leases are taken during the
	// HTTP drain window.
	cancelConsumers()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	log.Info("server stopped gracefully")
}
