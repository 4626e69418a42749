// Package main はToDoリストサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	redisstore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/todolist/internal/auth"
	"github.com/yourusername/todolist/internal/config"
	"github.com/yourusername/todolist/internal/flash"
	"github.com/yourusername/todolist/internal/repository"
	"github.com/yourusername/todolist/internal/tasks"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// Redis接続（セッションとフラッシュ通知で共用）
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse redis url: %v", err)
	}
	redisClient := redis.NewClient(redisOpt)
	flashStore := flash.NewStore(redisClient, time.Duration(cfg.FlashTTLMinutes)*time.Minute)

	// セッションストアの設定。セッション本体はRedis側に置き、
	// クッキーには署名付きのセッションIDだけを持たせる
	store, err := redisstore.NewStore(10, "tcp", redisOpt.Addr, redisOpt.Username, redisOpt.Password, []byte(cfg.SessionSecret))
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	// CORSミドルウェアの設定（開発用フロントエンドのオリジンを許可）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// サーバーサイドレンダリング用テンプレートと静的ファイル
	router.LoadHTMLGlob("web/templates/*.html")
	router.Static("/static", "./web/static")

	// PostgreSQL接続
	db, err := repository.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// ルーティングの設定
	setupRoutes(router, cfg, db, flashStore)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "todolist",
		"version": "0.1.0",
	})
}

// handleLanding はランディングページのハンドラーを返します。
func handleLanding(flashes *flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Flashes": flashes.TakeFrom(c),
		})
	}
}

// setupRoutes はルートとガードの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, db *sqlx.DB, flashes *flash.Store) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)
	router.GET("/", handleLanding(flashes))

	userRepo := repository.NewPostgresUserRepository(db)
	taskRepo := repository.NewPostgresTaskRepository(db)
	hasher := auth.NewHasher(cfg.BcryptCost)
	authManager := auth.NewManager(cfg, userRepo, hasher, flashes)
	taskService := tasks.NewService(taskRepo)

	users := router.Group("/users")
	{
		// ログイン済みユーザーは登録・ログインフォームに入れない
		users.GET("/register", authManager.RequireAnonymous(), authManager.ShowRegister)
		users.GET("/login", authManager.RequireAnonymous(), authManager.ShowLogin)
		users.GET("/logout", authManager.Logout)

		users.POST("/register", authManager.VerifyCSRF(), authManager.Register)
		users.POST("/login", authManager.VerifyCSRF(), authManager.Login)

		// タスク操作はログイン必須。ガードはハンドラー本体より先に実行される
		protected := users.Group("")
		protected.Use(authManager.RequireLogin(), authManager.VerifyCSRF())
		{
			protected.GET("/todolist", tasks.ListHandler(taskService, flashes))

			taskRoutes := protected.Group("/tasks")
			{
				taskRoutes.POST("/add", tasks.AddHandler(taskService, flashes))
				taskRoutes.POST("/delete/:id", tasks.DeleteHandler(taskService, flashes))
				taskRoutes.GET("/edit/:id", tasks.EditFormHandler(taskService, flashes))
				taskRoutes.POST("/update/:id", tasks.UpdateHandler(taskService, flashes))
			}
		}
	}
}
