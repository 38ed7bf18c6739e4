package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/postcraft/backend/internal/middleware"
	"github.com/postcraft/backend/internal/models"
	"github.com/postcraft/backend/internal/services"
)

type GenerationHandler struct {
	orchestrator *services.Orchestrator
}

func NewGenerationHandler(orchestrator *services.Orchestrator) *GenerationHandler {
	return &GenerationHandler{orchestrator: orchestrator}
}

// Generate runs a generation tool against the caller's credits
// @Summary Generate content
// @Description Debits the tool price for the selected tier and returns the generated content. Errors ending in _ERROR_POST_DEDUCTION mean the credits were consumed.
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tool path string true "Tool" Enums(tweet, caption, hashtag, video-idea, hook-title, generic-content)
// @Param request body object{tier=string,topic=string} true "Tool parameters plus optional tier (basic|premium) or legacy credits selector"
// @Success 200 {object} services.GenerationResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Failure 504 {object} services.ErrorResponse
// @Router /generate/{tool} [post]
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	body, apiErr := services.ReadJSONBody(w, r)
	if apiErr != nil {
		services.SendErrorResponse(w, apiErr)
		return
	}

	resp, apiErr := h.orchestrator.Execute(r.Context(), services.GenerationRequest{
		AccountID: middleware.AccountIDFromContext(r.Context()),
		Tool:      models.ToolKind(chi.URLParam(r, "tool")),
		Body:      body,
	})
	if apiErr != nil {
		services.SendErrorResponse(w, apiErr)
		return
	}

	services.SendJSON(w, http.StatusOK, resp)
}
