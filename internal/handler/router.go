package handler

import (
	"oasis/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers 路由用到的全部接口
type Handlers struct {
	User         *UserHandler
	Friend       *FriendHandler
	Post         *PostHandler
	Comment      *CommentHandler
	Follow       *FollowHandler
	Favorites    *FavoritesHandler
	Recommend    *RecommendHandler
	Agreement    *AgreementHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
	Health       *HealthHandler
	WebSocket    gin.HandlerFunc
}

// NewRouter 创建路由，auth 为JWT认证中间件
func NewRouter(auth gin.HandlerFunc, h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(logger.RequestIDMiddleware())
	router.Use(logger.RequestLogger())
	router.Use(logger.ErrorLoggerMiddleware())
	router.Use(cors.Default())

	router.GET("/health", h.Health.Health)
	if h.WebSocket != nil {
		router.GET("/ws", h.WebSocket)
	}

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	{
		// 公开接口（无需认证）
		users.POST("/verify-code", h.User.SendVerifyCode)
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/password/reset", h.User.ResetPassword)
		users.POST("/exist", h.User.Exist)

		authUsers := users.Group("")
		authUsers.Use(auth)
		{
			authUsers.GET("/profile", h.User.GetProfile)
			authUsers.PATCH("/profile", h.User.UpdateProfile)
			authUsers.POST("/password", h.User.ChangePassword)
			authUsers.POST("/tel", h.User.ChangeTel)
			authUsers.GET("/online", h.User.Online)
			authUsers.GET("/:id", h.User.Retrieve)
		}
	}

	friends := v1.Group("/friends")
	friends.Use(auth)
	{
		friends.POST("", h.Friend.Request)
		friends.GET("", h.Friend.List)
		friends.GET("/pending", h.Friend.Pending)
		friends.GET("/blacklist", h.Friend.Blacklist)
		friends.GET("/:id", h.Friend.Retrieve)
		friends.PATCH("/:id", h.Friend.Update)
		friends.DELETE("/:id", h.Friend.Remove)
	}

	posts := v1.Group("/posts")
	posts.Use(auth)
	{
		posts.POST("", h.Post.Create)
		posts.GET("", h.Post.Mine)
		posts.GET("/story", h.Post.Story)
		posts.GET("/feed", h.Post.Feed)
		posts.POST("/nearby", h.Post.Nearby)
		posts.GET("/recommend", h.Recommend.Posts)
		posts.GET("/:id", h.Post.Retrieve)
		posts.PATCH("/:id", h.Post.Update)
		posts.DELETE("/:id", h.Post.Delete)
		posts.POST("/:id/like", h.Post.Like)
		posts.POST("/:id/unlike", h.Post.Unlike)
		posts.GET("/:id/likes", h.Post.Likers)
	}

	comments := v1.Group("/comments")
	comments.Use(auth)
	{
		comments.POST("", h.Comment.Create)
		comments.GET("", h.Comment.List)
		comments.PATCH("/:id", h.Comment.Update)
		comments.DELETE("/:id", h.Comment.Delete)
		comments.POST("/:id/like", h.Comment.Like)
		comments.POST("/:id/unlike", h.Comment.Unlike)
		comments.GET("/:id/likes", h.Comment.Likers)
	}

	follows := v1.Group("/follows")
	follows.Use(auth)
	{
		follows.GET("/following", h.Follow.Following)
		follows.GET("/fans", h.Follow.Fans)
		follows.POST("/:user_id", h.Follow.Follow)
		follows.DELETE("/:user_id", h.Follow.Unfollow)
		follows.GET("/:user_id/check", h.Follow.Check)
	}

	favorites := v1.Group("/favorites")
	favorites.Use(auth)
	{
		favorites.POST("", h.Favorites.Create)
		favorites.GET("", h.Favorites.List)
		favorites.POST("/operate", h.Favorites.Operate)
		favorites.GET("/:id", h.Favorites.Retrieve)
		favorites.PATCH("/:id", h.Favorites.Update)
		favorites.DELETE("/:id", h.Favorites.Delete)
	}

	agreements := v1.Group("/agreements")
	agreements.Use(auth)
	{
		agreements.POST("", h.Agreement.Set)
		agreements.GET("/check", h.Agreement.Check)
	}

	notifications := v1.Group("/notifications")
	notifications.Use(auth)
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/peek", h.Notification.Peek)
		notifications.GET("/count", h.Notification.Count)
		notifications.POST("/read", h.Notification.MarkRead)
	}

	admin := v1.Group("/admin")
	admin.Use(h.Admin.RequireToken())
	{
		admin.POST("/sensitive-words/reload", h.Admin.ReloadSensitiveWords)
		admin.POST("/recommends", h.Recommend.Publish)
	}

	return router
}
