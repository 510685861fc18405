package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oasis/config"
	"oasis/internal/handler"
	"oasis/internal/model"
	"oasis/internal/service"
	dbPkg "oasis/pkg/db"
	"oasis/pkg/jwt"
	"oasis/pkg/logger"
	"oasis/pkg/notify"
	"oasis/pkg/redis"
	"oasis/pkg/sensitive"
	"oasis/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== Oasis 启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.String("log_level", cfg.Log.Level),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化数据库连接
	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(db, model.All()...); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 4. 初始化Redis
	if err := redis.InitRedis(ctx, cfg.Redis); err != nil {
		log.Fatal("Redis连接失败", zap.Error(err))
	}
	defer func() {
		if err := redis.Close(); err != nil {
			log.Error("关闭Redis连接失败", zap.Error(err))
		}
	}()
	log.Info("Redis连接成功")

	// 5. 敏感词：写入初始词表，加载后订阅重载通知
	if seed := cfg.Sensitive.SeedWords(); len(seed) > 0 {
		if err := redis.AddSensitiveWords(ctx, seed...); err != nil {
			log.Error("写入初始敏感词失败", zap.Error(err))
		}
	}
	filter := sensitive.NewFilter(sensitive.SourceFunc(redis.GetSensitiveWords))
	if err := filter.Reload(ctx); err != nil {
		// 词表未就绪时评论接口拒绝服务，等待重载
		log.Error("敏感词加载失败", zap.Error(err))
	}
	sub, err := redis.SubscribeSensitiveReload(ctx)
	if err != nil {
		log.Error("订阅敏感词重载失败", zap.Error(err))
	} else {
		defer sub.Close()
		go filter.Listen(ctx, sub.Channel())
	}

	// 6. 初始化业务服务
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	wsManager := websocket.NewManager()
	hub := notify.NewHub(wsManager, notify.RedisInbox{})

	verifySvc := service.NewVerifyService(db, cfg.Verify, service.LogSMSSender{})
	userSvc := service.NewUserService(db, verifySvc, jwtSvc)
	friendSvc := service.NewFriendService(db, hub)
	postSvc := service.NewPostService(db, hub)
	commentSvc := service.NewCommentService(db, filter, hub)
	followSvc := service.NewFollowService(db)
	favoritesSvc := service.NewFavoritesService(db, postSvc)
	recommendSvc := service.NewRecommendService(db, postSvc)
	agreementSvc := service.NewAgreementService(db)

	handlers := &handler.Handlers{
		User:         handler.NewUserHandler(userSvc, verifySvc),
		Friend:       handler.NewFriendHandler(friendSvc),
		Post:         handler.NewPostHandler(postSvc),
		Comment:      handler.NewCommentHandler(commentSvc),
		Follow:       handler.NewFollowHandler(followSvc),
		Favorites:    handler.NewFavoritesHandler(favoritesSvc),
		Recommend:    handler.NewRecommendHandler(recommendSvc),
		Agreement:    handler.NewAgreementHandler(agreementSvc),
		Notification: handler.NewNotificationHandler(),
		Admin:        handler.NewAdminHandler(cfg.Server.AdminToken, filter),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"db":    dbPkg.HealthCheck,
			"redis": redis.HealthCheck,
		}),
		WebSocket: websocket.NewHandler(jwtSvc, cfg.WebSocket, wsManager).Serve,
	}

	// 7. 设置Gin模式并创建路由
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(jwtSvc.AuthMiddleware(), handlers)

	// 8. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}
