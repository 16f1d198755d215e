package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/simcase-api/internal/generation"
	"github.com/Conceptual-Machines/simcase-api/internal/models"
	"github.com/Conceptual-Machines/simcase-api/internal/ranges"
	"github.com/Conceptual-Machines/simcase-api/internal/services"
	"github.com/Conceptual-Machines/simcase-api/internal/structuring"
)

const (
	maxTitleLength   = 200
	maxRawTextLength = 200_000
)

// CaseHandler serves the case pipeline and its individual stages
type CaseHandler struct {
	service *services.CaseService
}

func NewCaseHandler(service *services.CaseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// BuildCase handles POST /api/v1/cases
func (h *CaseHandler) BuildCase(c *gin.Context) {
	var req services.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if utf8.RuneCountInString(req.Title) > maxTitleLength {
		badRequest(c, errors.New("title is too long"))
		return
	}

	result, err := h.service.BuildCase(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type StructureRequest struct {
	RawText string `json:"raw_text" binding:"required"`
	Title   string `json:"title"`
}

type StructureResponse struct {
	Document models.StructuredDocument `json:"document"`
	Digest   string                    `json:"digest"`
}

// StructureDocument handles POST /api/v1/documents/structure
func (h *CaseHandler) StructureDocument(c *gin.Context) {
	var req StructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.RawText) > maxRawTextLength {
		badRequest(c, errors.New("raw_text is too long"))
		return
	}

	doc, digest, err := h.service.StructureDocument(c.Request.Context(), req.RawText, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StructureResponse{Document: doc, Digest: digest})
}

type ClassifyRequest struct {
	Text string `json:"text"`
}

// Classify handles POST /api/v1/classify. Empty text is valid and lands in
// the overview bucket.
func (h *CaseHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, structuring.ClassifyDetailed(req.Text))
}

type RangesRequest struct {
	Questions  []models.Question         `json:"questions"`
	Selections models.ParameterSelection `json:"selections"`
	Objectives []string                  `json:"objectives"`
}

// MapRanges handles POST /api/v1/ranges
func (h *CaseHandler) MapRanges(c *gin.Context) {
	var req RangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, ranges.MapSelections(req.Questions, req.Selections, req.Objectives))
}

type GenerateRequest struct {
	Title           string  `json:"title"`
	Prompt          string  `json:"prompt" binding:"required"`
	SystemPrompt    string  `json:"system_prompt"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	TestMode        bool    `json:"test_mode"`
}

type GenerateResponse struct {
	*generation.Result
	Cached bool `json:"cached"`
}

// Generate handles POST /api/v1/generations: raw resilient generation
func (h *CaseHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		badRequest(c, errors.New("prompt is empty"))
		return
	}

	result, cached, err := h.service.Generate(c.Request.Context(), generation.Request{
		RequestID:       c.GetString("request_id"),
		Title:           req.Title,
		Prompt:          req.Prompt,
		SystemPrompt:    req.SystemPrompt,
		Model:           req.Model,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
		TestMode:        req.TestMode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Result: result, Cached: cached})
}
