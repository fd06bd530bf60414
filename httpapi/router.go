package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter mounts the REST API under /api, the live socket on /ws and
// the Prometheus endpoint on /metrics.
func NewRouter(
	authMiddleware *AuthMiddleware,
	users *UserHandler,
	rooms *RoomHandler,
	messages *MessageHandler,
	live gin.HandlerFunc,
	metrics http.Handler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.POST("/users/register", users.Register)
	api.POST("/users/login", users.Login)

	authd := api.Group("", authMiddleware.Handle)
	authd.GET("/users/me", users.Me)
	authd.POST("/users/logout", users.Logout)

	authd.POST("/rooms", rooms.Create)
	authd.GET("/rooms", rooms.List)
	authd.GET("/rooms/:id", rooms.Get)
	authd.POST("/rooms/:id/join", rooms.Join)
	authd.POST("/rooms/:id/leave", rooms.Leave)

	authd.POST("/messages", messages.Send)
	authd.GET("/messages/room/:roomId", messages.ListRoom)
	authd.GET("/messages/private", messages.ListPrivate)
	authd.PATCH("/messages/:id/read", messages.MarkRead)

	router.GET("/ws", live)
	router.GET("/metrics", gin.WrapH(metrics))

	return router
}
