package handler

import "github.com/gin-gonic/gin"

type RouterDeps struct {
	Chat   *ChatHandler
	Ingest *IngestHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/upload", deps.Ingest.Upload)
	api.POST("/ingest", deps.Ingest.Ingest)
	api.POST("/ingest/paths", deps.Ingest.IngestPaths)
	api.POST("/chat", deps.Chat.Chat)
	api.POST("/clear", deps.Chat.Clear)
	api.GET("/status", deps.Chat.Status)
}
