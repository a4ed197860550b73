package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvicentini/dispensa/internal/auth"
	"github.com/mvicentini/dispensa/internal/config"
	"github.com/mvicentini/dispensa/internal/middleware"
)

func setupRouter(srv *Server, jwtMgr *auth.JWTManager, limiter *middleware.LimiterStore, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range cfg.CORS.AllowedOrigins {
			if origin == allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Length, Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(middleware.JWT(jwtMgr))

	// mutations share a per-identity rate limit; reads are not limited
	rl := middleware.RateLimit(limiter)

	lists := api.Group("/lists")
	{
		lists.GET("", srv.ListMyLists)
		lists.POST("", rl, srv.CreateList)
		lists.GET("/:id", srv.GetList)
		lists.DELETE("/:id", rl, srv.DeleteList)

		lists.POST("/:id/items", rl, srv.AddItem)
		lists.PUT("/:id/items/:itemId", rl, srv.UpdateItem)
		lists.DELETE("/:id/items/:itemId", rl, srv.DeleteItem)

		lists.POST("/:id/chat", rl, srv.AddChatMessage)
		lists.POST("/:id/share", rl, srv.ShareList)
	}

	requests := api.Group("/requests")
	{
		requests.GET("", srv.ListPendingRequests)
		requests.POST("/:id/respond", rl, srv.RespondToRequest)
	}

	api.GET("/ws", srv.ServeWS)

	return router
}
