package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gomessenger/internal/common"
	"gomessenger/internal/config"
	"gomessenger/internal/dbmongo"
	"gomessenger/internal/dbmysql"
	"gomessenger/internal/di"
	"gomessenger/internal/media"
	"gomessenger/internal/notif"
	"gomessenger/internal/observ"
	"gomessenger/internal/ops"
	"gomessenger/internal/server"
	"gomessenger/internal/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := observ.NewLogger(cfg.Server.Environment, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := dbmysql.NewMySQL(cfg.DSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	logger.Info("connected to MySQL", zap.String("db", cfg.Database.DatabaseName))

	avatars, err := newAvatarStore(cfg, logger)
	if err != nil {
		logger.Fatal("avatar store", zap.Error(err))
	}

	registry := server.NewRegistry()
	router := server.NewRouter(registry, logger)

	notifs := notif.NewManager(cfg.Notif.Workers, cfg.Notif.BufferSize, logger)
	notifs.Subscribe(notif.NewDatabaseObserver(di.InitNotificationRepository(db)))
	notifs.Subscribe(notif.NewLiveSessionObserver(router))
	defer notifs.Close()

	chats := di.InitChatService(db)
	friends := di.InitFriendService(db, notifs)

	userRepo := user.NewUserRepository(db)
	tokens := common.NewTokenIssuer(cfg.JWTSecret, 24*time.Hour)
	auth := user.NewAuthService(userRepo, tokens)

	files := media.NewFileStore(
		cfg.Files.Root, cfg.Files.ChunkSize, cfg.Files.ThumbMax,
		media.NewAttachmentRepository(db), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	global, err := chats.EnsureGlobal(ctx)
	if err != nil {
		logger.Fatal("seed global conversation", zap.Error(err))
	}

	handler := server.NewHandler(server.Deps{
		Registry:    registry,
		Router:      router,
		Auth:        auth,
		Friends:     friends,
		Chats:       chats,
		Files:       files,
		Avatars:     avatars,
		Notifs:      notifs,
		Log:         logger,
		ReadTimeout: cfg.Server.ReadTimeout,
		GlobalID:    global.ID,
	})

	opsHandler := ops.NewHandler(registry, db, logger)
	go func() {
		if err := http.ListenAndServe(cfg.Server.OpsAddr, opsHandler.Routes()); err != nil {
			logger.Warn("ops listener stopped", zap.Error(err))
		}
	}()

	srv := server.New(cfg.Server.ListenAddr, handler, registry, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func newAvatarStore(cfg *config.Config, logger *zap.Logger) (media.AvatarStore, error) {
	if cfg.Mongo.URI == "" {
		return media.NewDiskAvatarStore(cfg.Files.AvatarDir)
	}
	client, err := dbmongo.NewMongoConnection(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("avatar storage on GridFS", zap.String("db", cfg.Mongo.Database))
	return dbmongo.NewAvatarStorage(client), nil
}
