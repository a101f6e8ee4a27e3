package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/models"
	"rag-chatbot/internal/pkg/errors"
	"rag-chatbot/internal/rag"
)

type ChatRequest struct {
	Query    string              `json:"query"`
	Messages models.Conversation `json:"messages"`
}

type SourceDoc struct {
	Document string `json:"document"`
	DocID    string `json:"doc_id"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

type ChatResponse struct {
	Response   string      `json:"response"`
	SourceDocs []SourceDoc `json:"source_docs,omitempty"`
}

type ChatHandler struct {
	manager *rag.Manager
}

func NewChatHandler(manager *rag.Manager) *ChatHandler {
	return &ChatHandler{manager: manager}
}

// Chat answers a query (or a full conversation) from the shared pipeline.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	conv := req.Messages
	if len(conv) == 0 {
		if req.Query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "query or messages required"})
			return
		}
		conv = models.Conversation{{Role: models.RoleUser, Content: req.Query}}
	}

	resp, err := h.manager.Query(c.Request.Context(), conv)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotReady) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Pipeline not initialized. Call /ingest first."})
			return
		}
		log.Error().Err(err).Msg("chat error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	out := ChatResponse{Response: resp.Answer}
	for _, src := range resp.Sources {
		out.SourceDocs = append(out.SourceDocs, SourceDoc{
			Document: src.Text,
			DocID:    src.Metadata.DocID,
			Start:    src.Metadata.Start,
			End:      src.Metadata.End,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Status reports whether the pipeline is ready and what it was built from.
func (h *ChatHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Status())
}

// Clear wipes the index; queries fail until the next ingestion.
func (h *ChatHandler) Clear(c *gin.Context) {
	if err := h.manager.Clear(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("clear error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
