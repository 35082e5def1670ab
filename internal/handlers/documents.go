package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/services"
)

type DocumentHandler struct {
	log       *logger.Logger
	ingestion services.IngestionService
	store     services.VectorStore
}

func NewDocumentHandler(log *logger.Logger, ingestion services.IngestionService, store services.VectorStore) *DocumentHandler {
	return &DocumentHandler{
		log:       log.With("handler", "DocumentHandler"),
		ingestion: ingestion,
		store:     store,
	}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	summary, err := h.ingestion.Ingest(c.Request.Context(), data, header.Filename)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}

func (h *DocumentHandler) List(c *gin.Context) {
	groups, err := h.store.ListDocuments(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": groups})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	filename := c.Param("filename")
	deleted, err := h.store.DeleteByFilename(c.Request.Context(), filename)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "document deleted", "chunks_deleted": deleted})
}

type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

func (h *DocumentHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	results, err := h.store.Search(c.Request.Context(), req.Query, req.K)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}
