package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	_ "estate_chat_service/cmd/chat_service/docs" // 引入生成的 Swagger 文档
	"estate_chat_service/internal/chat/app"
	"estate_chat_service/internal/chat/repository"
	"estate_chat_service/internal/chat/router"
	"estate_chat_service/pkg/config"
	"estate_chat_service/pkg/database"
	"estate_chat_service/pkg/logger"
	testtool "estate_chat_service/pkg/test_tool"
	"estate_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	token.SetSecret(config.EnvConfig.JWTSecret)

	ctx := context.Background()
	storePolicy := cfg.Store.WithDefaults()

	// 1. 連線 PostgreSQL (聊天室 / 訊息 / 表情 / 物件)
	dsn := database.PostgresDSN(cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database)
	db, err := database.NewGormPostgres(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval) * time.Second,
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("host", cfg.PostgreSQL.Host),
			zap.Error(err),
		)
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Log.Fatal("資料表遷移失敗", zap.Error(err))
	}

	// 2. 建立 Mongo 連線 (連線稽核 / last seen)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    database.MongoURI(cfg.MongoSQL.Host, cfg.MongoSQL.Port, cfg.MongoSQL.User, cfg.MongoSQL.Password),
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval) * time.Second,
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("host", cfg.MongoSQL.Host),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)
	if err := repository.EnsureIndexes(ctx, mongo.Database); err != nil {
		logger.Log.Warn("ensure mongo indexes", zap.Error(err))
	}

	// 3. 建立 Redis 連線 (離線通知)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, os.Getenv("REDIS_ADDR"), cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	defer redisClient.Close()

	// 4. 初始化 Repository
	roomRepo := repository.NewRoomRepository(db, storePolicy)
	msgRepo := repository.NewMessageRepository(db, storePolicy)
	reactionRepo := repository.NewReactionRepository(db, storePolicy)
	snapshot := repository.NewSnapshotter(db, storePolicy)
	listings := repository.NewListingDirectory(db, storePolicy)
	connRepo := repository.NewMongoConnectionRepository(mongo.Database)
	pub := repository.NewRedisPubSub(redisClient, cfg.Redis.NotifyChannel)

	// 5. 初始化 UseCases
	registry := app.NewPresenceRegistry(0)
	hub := app.NewHub()
	chatUC := app.NewChatUseCase(roomRepo, msgRepo, reactionRepo, snapshot, listings)
	connUC := app.NewConnectionUseCase(chatUC, registry, hub, connRepo)

	// 6. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	// 注册路由
	router.RegisterRoutes(r,
		app.NewChatWebsocketHandler(chatUC, connUC, registry, hub, pub, cfg.WebSocket),
		app.NewChatHTTPHandler(chatUC),
	)

	testtool.StartPprof()

	port := cfg.Port
	if port == "" {
		port = config.EnvConfig.ChatServicePort
	}
	logger.Log.Info("Chat Service listening", zap.String("port", port))
	if err := r.Listen(":" + port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
