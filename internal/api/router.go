package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/soma-lab/relation-core/config"
	"github.com/soma-lab/relation-core/internal/api/handler"
	"github.com/soma-lab/relation-core/pkg/middleware"
)

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	r.Use(middleware.RateLimit(rate.Limit(100), 200))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler))

	v1 := r.Group("/api/v1")

	// 列表与探测接口公开，写操作要求登录
	relations := v1.Group("/relations")
	{
		relations.GET("/:user_id/following", h.ListFollowing)
		relations.GET("/:user_id/followers", h.ListFollowers)
		relations.GET("/is-follower", h.IsFollower)

		authed := relations.Group("", middleware.Auth(cfg.JWT.Secret))
		authed.POST("/follow", h.Follow)
		authed.POST("/unfollow", h.Unfollow)
	}

	friendships := v1.Group("/friendships")
	{
		friendships.GET("/:user_id", h.ListAnothersFriends)

		authed := friendships.Group("", middleware.Auth(cfg.JWT.Secret))
		authed.GET("", h.ListFriends)
		authed.POST("/action", h.FriendshipAction)
	}

	return r
}
