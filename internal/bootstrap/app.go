package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"records-backend/internal/classify"
	openai "records-backend/internal/classify/openai"
	"records-backend/internal/documents"
	"records-backend/internal/extract"
	"records-backend/internal/ingest"
	"records-backend/internal/ocr"
	"records-backend/internal/queue"
	"records-backend/internal/quota"
	"records-backend/internal/renewal"
	"records-backend/internal/shared/config"
	"records-backend/internal/shared/server"
	"records-backend/internal/shared/storage/db"
	"records-backend/internal/shared/storage/object"
	localstore "records-backend/internal/shared/storage/object/local"
	s3store "records-backend/internal/shared/storage/object/s3"
)

// App holds the process-wide dependency graph. Every handle is constructed
// once here and passed explicitly; nothing reads these through globals.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DocumentsRepo documents.Repo
	QuotaLedger   *quota.Ledger

	IngestService  *ingest.Service
	RenewalService *renewal.Service

	IngestHandler   *ingest.Handler
	DocumentHandler *documents.Handler
	RenewalHandler  *renewal.Handler
}

// Build prepares the full dependency graph and router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		IngestHandler:   app.IngestHandler,
		DocumentHandler: app.DocumentHandler,
		RenewalHandler:  app.RenewalHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.AuditQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.AuditQueueURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	var docRepo documents.Repo
	var quotaStore quota.Store
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		quotaStore = quota.NewPGStore(app.DB, cfg.QuotaDefaultLimitBytes)
	} else {
		docRepo = documents.NewMemoryRepo()
		quotaStore = quota.NewMemoryStore(cfg.QuotaDefaultLimitBytes)
	}
	ledger := quota.NewLedger(quotaStore)

	var ocrEngine ocr.Engine
	if strings.TrimSpace(cfg.OCRBaseURL) != "" {
		client, err := ocr.NewClient(ocr.ClientConfig{
			BaseURL:      cfg.OCRBaseURL,
			ClientID:     cfg.OCRClientID,
			ClientSecret: cfg.OCRClientSecret,
			TokenURL:     cfg.OCRTokenURL,
			Timeout:      time.Duration(cfg.OCRTimeoutSecs) * time.Second,
		})
		if err != nil {
			return err
		}
		ocrEngine = client
	}

	llmClient := classify.Client(classify.PlaceholderClient{})
	if cfg.LLMProvider == "openai" {
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			return err
		}
		llmClient = client
	}

	ingestSvc := &ingest.Service{
		Repo:  docRepo,
		Store: app.Store,
		Quota: ledger,
		Extractor: &extract.Extractor{
			OCR:      ocrEngine,
			LangHint: cfg.OCRDefaultLang,
		},
		Classifier:     &classify.Classifier{LLM: llmClient},
		Queue:          app.Queue,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	renewalSvc := &renewal.Service{Repo: docRepo}

	app.DocumentsRepo = docRepo
	app.QuotaLedger = ledger
	app.IngestService = ingestSvc
	app.RenewalService = renewalSvc
	app.IngestHandler = ingest.NewHandler(ingestSvc)
	app.DocumentHandler = documents.NewHandler(docRepo, app.Store)
	app.RenewalHandler = renewal.NewHandler(renewalSvc)

	return nil
}
