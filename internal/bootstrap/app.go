package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/audit"
	"contadoc-backend/internal/companies"
	"contadoc-backend/internal/documents"
	"contadoc-backend/internal/ingest"
	"contadoc-backend/internal/ingest/worker"
	"contadoc-backend/internal/ocr"
	azureocr "contadoc-backend/internal/ocr/azure"
	"contadoc-backend/internal/ocr/pdftext"
	"contadoc-backend/internal/shared/config"
	"contadoc-backend/internal/shared/crypto"
	"contadoc-backend/internal/shared/server"
	"contadoc-backend/internal/shared/storage/blob"
	localstore "contadoc-backend/internal/shared/storage/blob/local"
	s3store "contadoc-backend/internal/shared/storage/blob/s3"
	"contadoc-backend/internal/shared/storage/db"
	"contadoc-backend/internal/users"
	"contadoc-backend/internal/vault"
)

const azureOCRTimeout = 2 * time.Minute

// App holds shared dependencies for the API and worker processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Blob  blob.Store
	Vault *vault.Vault
	OCR   ocr.Extractor

	CompaniesRepo companies.Repo
	UsersRepo     users.Repo
	DocumentsRepo documents.Repo
	ProtocolsRepo documents.ProtocolRepo
	AuditRepo     audit.Repo

	Queue     ingest.Queue
	Processor *worker.Processor
	Recorder  *audit.Recorder

	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	AuditHandler     *audit.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
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

	cipher, err := buildCipher(cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := buildOCR(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Blob:   store,
		Vault:  vault.New(store, cipher),
		OCR:    extractor,
	}

	if sqlDB != nil {
		app.CompaniesRepo = &companies.PGRepo{DB: sqlDB}
		app.UsersRepo = &users.PGRepo{DB: sqlDB}
		app.DocumentsRepo = &documents.PGRepo{DB: sqlDB}
		app.ProtocolsRepo = &documents.ProtocolPGRepo{DB: sqlDB}
		app.AuditRepo = audit.NewPGRepo(sqlDB)
	} else {
		app.CompaniesRepo = companies.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.ProtocolsRepo = documents.NewProtocolMemoryRepo()
		app.AuditRepo = audit.NewMemoryRepo()
	}

	app.Processor = &worker.Processor{
		Docs:      app.DocumentsRepo,
		Companies: app.CompaniesRepo,
		Vault:     app.Vault,
		OCR:       app.OCR,
	}

	queue, err := buildQueue(ctx, cfg, app.Processor)
	if err != nil {
		return nil, err
	}
	app.Queue = queue

	app.Recorder = audit.NewRecorder(app.AuditRepo, cfg.AuditBuffer)

	app.DocumentsService = &documents.Service{
		Repo:      app.DocumentsRepo,
		Protocols: app.ProtocolsRepo,
		Companies: app.CompaniesRepo,
		Vault:     app.Vault,
		Queue:     app.Queue,
	}
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.AuditHandler = audit.NewHandler(app.AuditRepo)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		UsersRepo:        app.UsersRepo,
		Recorder:         app.Recorder,
		DocumentsHandler: app.DocumentsHandler,
		AuditHandler:     app.AuditHandler,
	})

	return app, nil
}

// Shutdown drains the queue and audit recorder, then closes the database.
func (a *App) Shutdown(ctx context.Context) {
	if a.Queue != nil {
		a.Queue.Shutdown(ctx)
	}
	if a.Recorder != nil {
		a.Recorder.Close(ctx)
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
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

func buildStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildCipher(cfg config.Config) (*crypto.Cipher, error) {
	raw := strings.TrimSpace(cfg.EncryptionKey)
	if raw == "" {
		if !isDevLike(cfg.Env) {
			return nil, fmt.Errorf("ENCRYPTION_KEY is required")
		}
		// Dev convenience only: documents encrypted under an ephemeral key
		// are unreadable after restart.
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		log.Printf("bootstrap: ENCRYPTION_KEY empty; using ephemeral dev key")
		return crypto.NewCipher(key)
	}

	key, err := crypto.ParseKey(raw)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}
	return crypto.NewCipher(key)
}

func buildOCR(cfg config.Config) (ocr.Extractor, error) {
	if cfg.OCRProvider == "azure" {
		return azureocr.NewClient(cfg.AzureEndpoint, cfg.AzureAPIKey, azureOCRTimeout)
	}
	return pdftext.New(), nil
}

func buildQueue(ctx context.Context, cfg config.Config, processor *worker.Processor) (ingest.Queue, error) {
	if cfg.QueueBackend == "sqs" {
		if strings.TrimSpace(cfg.SQSQueueURL) == "" {
			return nil, fmt.Errorf("QUEUE_BACKEND=sqs requires SQS_QUEUE_URL")
		}
		return ingest.NewSQSQueue(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
	}

	exhausted := func(ctx context.Context, job ingest.Job, _ error) {
		processor.MarkFailed(ctx, job.DocumentID)
	}
	return ingest.NewMemoryQueue(processor, exhausted, ingest.WithWorkers(cfg.WorkerConcurrency)), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
