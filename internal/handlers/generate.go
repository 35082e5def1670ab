package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/services"
)

type GenerateHandler struct {
	log        *logger.Logger
	generation services.GenerationService
	store      services.VectorStore
}

func NewGenerateHandler(log *logger.Logger, generation services.GenerationService, store services.VectorStore) *GenerateHandler {
	return &GenerateHandler{
		log:        log.With("handler", "GenerateHandler"),
		generation: generation,
		store:      store,
	}
}

type generateBriefRequest struct {
	Filename     string `json:"filename"`
	DocumentText string `json:"document_text"`
	Save         bool   `json:"save"`
}

func (h *GenerateHandler) GenerateBrief(c *gin.Context) {
	var req generateBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	text, err := h.resolveDocumentText(c, req.DocumentText, req.Filename)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	brief, err := h.generation.GenerateBrief(c.Request.Context(), text)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	if !req.Save {
		RespondOK(c, gin.H{"brief": brief})
		return
	}
	project, err := h.generation.SaveBrief(c.Request.Context(), brief)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"brief": brief, "project": project})
}

type generateTasksRequest struct {
	Filename       string `json:"filename"`
	DocumentText   string `json:"document_text"`
	ProjectContext string `json:"project_context"`
	MaxTasks       int    `json:"max_tasks"`
	ProjectID      int64  `json:"project_id"`
	Save           bool   `json:"save"`
}

func (h *GenerateHandler) GenerateTasks(c *gin.Context) {
	var req generateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	text, err := h.resolveDocumentText(c, req.DocumentText, req.Filename)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	tasks, err := h.generation.GenerateTasks(c.Request.Context(), text, req.ProjectContext, req.MaxTasks)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	if !req.Save {
		RespondOK(c, gin.H{"tasks": tasks})
		return
	}
	rows, err := h.generation.SaveTasks(c.Request.Context(), req.ProjectID, tasks)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tasks": tasks, "schedules": rows})
}

// resolveDocumentText prefers inline text; otherwise it pulls the stored
// full document text for the named upload.
func (h *GenerateHandler) resolveDocumentText(c *gin.Context, documentText, filename string) (string, error) {
	if documentText != "" {
		return documentText, nil
	}
	if filename == "" {
		return "", apierr.InvalidInput("either document_text or filename is required")
	}
	text, err := h.store.FullDocumentText(c.Request.Context(), filename)
	if err != nil {
		return "", fmt.Errorf("resolve document %q: %w", filename, err)
	}
	return text, nil
}
