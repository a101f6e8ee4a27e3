package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/pkg/errors"
	"rag-chatbot/internal/rag"
)

type IngestPathsRequest struct {
	FilePaths []string `json:"file_paths" binding:"required"`
}

type IngestHandler struct {
	manager *rag.Manager
	tempDir string
}

func NewIngestHandler(manager *rag.Manager, tempDir string) *IngestHandler {
	return &IngestHandler{manager: manager, tempDir: tempDir}
}

// Upload saves the posted files and returns where they landed. Existing
// filenames get a uuid suffix instead of being overwritten.
func (h *IngestHandler) Upload(c *gin.Context) {
	paths, err := h.saveUploads(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	log.Info().Strs("files", paths).Msg("files uploaded")
	c.JSON(http.StatusOK, gin.H{"saved_files": paths})
}

// Ingest saves the posted files and rebuilds the shared pipeline from them.
func (h *IngestHandler) Ingest(c *gin.Context) {
	paths, err := h.saveUploads(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	h.ingest(c, paths)
}

// IngestPaths rebuilds the shared pipeline from already-persisted files.
// Relative paths are resolved against the upload directory.
func (h *IngestHandler) IngestPaths(c *gin.Context) {
	var req IngestPathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	absPaths := make([]string, 0, len(req.FilePaths))
	for _, path := range req.FilePaths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(h.tempDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("File does not exist: %s", path)})
			return
		}
		absPaths = append(absPaths, path)
	}
	h.ingest(c, absPaths)
}

func (h *IngestHandler) ingest(c *gin.Context, paths []string) {
	if err := h.manager.Ingest(c.Request.Context(), paths); err != nil {
		log.Error().Err(err).Msg("ingestion error")
		status := http.StatusInternalServerError
		if stderrors.Is(err, errors.ErrUnsupportedType) || stderrors.Is(err, errors.ErrNotFound) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}
	log.Info().Strs("files", paths).Msg("ingestion completed")
	c.JSON(http.StatusOK, gin.H{"status": "ingested", "files": paths})
}

func (h *IngestHandler) saveUploads(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File["files"]
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}
	if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
		return nil, err
	}

	var saved []string
	for _, file := range files {
		name := filepath.Base(file.Filename)
		dest := filepath.Join(h.tempDir, name)
		if _, err := os.Stat(dest); err == nil {
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			dest = filepath.Join(h.tempDir, fmt.Sprintf("%s_%s%s", base, uuid.New().String(), ext))
		}
		if err := c.SaveUploadedFile(file, dest); err != nil {
			return nil, fmt.Errorf("failed to save file %s: %w", name, err)
		}
		log.Info().Str("path", dest).Msg("saved uploaded file")
		saved = append(saved, dest)
	}
	return saved, nil
}
