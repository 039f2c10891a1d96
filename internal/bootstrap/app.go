package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	googleauth "docqa-backend/internal/auth"
	"docqa-backend/internal/chat"
	"docqa-backend/internal/conversations"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/llm"
	openai "docqa-backend/internal/llm/openai"
	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/server"
	"docqa-backend/internal/shared/storage/db"
	"docqa-backend/internal/shared/storage/mongodb"
	"docqa-backend/internal/shared/storage/object"
	localstore "docqa-backend/internal/shared/storage/object/local"
	s3store "docqa-backend/internal/shared/storage/object/s3"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/users"
)

const (
	backendPostgres = "postgres"
	backendMongo    = "mongodb"
	backendMemory   = "memory"

	mongoConnectTimeout = 10 * time.Second
)

// App holds the wired dependency graph.
type App struct {
	Config               config.Config
	Router               *gin.Engine
	Backend              string
	DB                   *sql.DB
	Mongo                *mongo.Client
	Store                object.ObjectStore
	Tokens               *auth.Tokens
	Gateway              llm.Gateway
	UsersRepo            users.Repo
	DocumentsRepo        documents.Repo
	ConversationsRepo    conversations.Repo
	UsersService         *users.Service
	DocumentsService     *documents.Service
	ConversationsService *conversations.Service
	ChatService          *chat.Service
	GoogleAuth           *googleauth.GoogleService
}

type repos struct {
	users         users.Repo
	documents     documents.Repo
	conversations conversations.Repo
}

// Build prepares every dependency and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()

	app := &App{Config: cfg}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	r, err := buildRepos(ctx, app)
	if err != nil {
		return nil, err
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}
	app.Gateway = gateway

	if err := buildServices(app, r); err != nil {
		return nil, err
	}
	return app, nil
}

// Close releases database connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildRepos(ctx context.Context, app *App) (repos, error) {
	cfg := app.Config
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return memoryFallback(cfg, err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return memoryFallback(cfg, fmt.Errorf("run migrations: %w", err))
		}
		app.DB = sqlDB
		app.Backend = backendPostgres
		return repos{
			users:         &users.PGRepo{DB: sqlDB},
			documents:     &documents.PGRepo{DB: sqlDB},
			conversations: &conversations.PGRepo{DB: sqlDB},
		}, nil

	case strings.TrimSpace(cfg.MongoURI) != "":
		client, err := mongodb.Connect(ctx, cfg.MongoURI, mongoConnectTimeout)
		if err != nil {
			return memoryFallback(cfg, err)
		}
		database := client.Database(cfg.MongoDatabase)
		userRepo := users.NewMongoRepo(database.Collection(mongodb.UsersCollection))
		docRepo := documents.NewMongoRepo(database.Collection(mongodb.DocumentsCollection))
		convRepo := conversations.NewMongoRepo(database.Collection(mongodb.ConversationsCollection))
		for _, indexed := range []interface{ EnsureIndexes(context.Context) error }{userRepo, docRepo, convRepo} {
			if err := indexed.EnsureIndexes(ctx); err != nil {
				_ = client.Disconnect(ctx)
				return memoryFallback(cfg, fmt.Errorf("ensure indexes: %w", err))
			}
		}
		app.Mongo = client
		app.Backend = backendMongo
		return repos{users: userRepo, documents: docRepo, conversations: convRepo}, nil

	default:
		if !cfg.IsDevLike() {
			return repos{}, fmt.Errorf("DATABASE_URL or MONGODB_URI is required")
		}
		telemetry.Info("bootstrap.memory_repos", map[string]any{"reason": "no database configured"})
		app.Backend = backendMemory
		return memoryRepos(), nil
	}
}

func memoryFallback(cfg config.Config, cause error) (repos, error) {
	if !cfg.IsDevLike() {
		return repos{}, cause
	}
	telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": cause.Error()})
	return memoryRepos(), nil
}

func memoryRepos() repos {
	return repos{
		users:         users.NewMemoryRepo(),
		documents:     documents.NewMemoryRepo(),
		conversations: conversations.NewMemoryRepo(),
	}
}

func buildGateway(cfg config.Config) (llm.Gateway, error) {
	if cfg.LLMProvider == "none" {
		return llm.PlaceholderGateway{}, nil
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" && cfg.IsDevLike() {
		telemetry.Warn("bootstrap.llm_not_configured", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderGateway{}, nil
	}
	return openai.NewClient(openai.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	})
}

func buildServices(app *App, r repos) error {
	cfg := app.Config

	docRepo := r.documents
	if cfg.DocumentCacheSize > 0 {
		cached, err := documents.NewCachedRepo(r.documents, cfg.DocumentCacheSize)
		if err != nil {
			return fmt.Errorf("document cache: %w", err)
		}
		docRepo = cached
	}

	app.Tokens = auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	app.UsersRepo = r.users
	app.DocumentsRepo = docRepo
	app.ConversationsRepo = r.conversations

	app.UsersService = users.NewService(r.users, app.Tokens)
	app.ConversationsService = conversations.NewService(r.conversations)
	app.DocumentsService = &documents.Service{
		Store:           app.Store,
		StorageProvider: cfg.ObjectStoreType,
		Repo:            docRepo,
		Conversations:   app.ConversationsService,
	}
	app.ChatService = &chat.Service{
		Documents:     app.DocumentsService,
		Conversations: app.ConversationsService,
		Gateway:       app.Gateway,
	}

	deps := server.RouterDeps{
		Config:          cfg,
		Tokens:          app.Tokens,
		DocumentHandler: documents.NewHandler(app.DocumentsService, cfg.MaxUploadBytes),
		ChatHandler:     chat.NewHandler(app.ChatService),
		UserHandler:     users.NewHandler(app.UsersService),
	}
	google := googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
	)
	if google.Configured() {
		app.GoogleAuth = google
		deps.GoogleAuth = google
	}
	app.Router = server.NewRouter(deps)

	telemetry.Info("bootstrap.ready", map[string]any{
		"backend":      app.Backend,
		"object_store": cfg.ObjectStoreType,
		"llm_provider": cfg.LLMProvider,
	})
	return nil
}
