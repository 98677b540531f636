package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/optitalent/hr-backend/internal/generation"
	"github.com/optitalent/hr-backend/internal/middleware"
)

type AssistantRequest struct {
	Input map[string]any `json:"input" validate:"required"`
}

// RunAssistant invokes a generation flow. The guard has already checked
// the assistant section; flows themselves carry no extra authorization.
func (s *Server) RunAssistant(w http.ResponseWriter, r *http.Request) {
	flow := chi.URLParam(r, "flow")
	if !generation.KnownFlow(flow) {
		NotFound("flow").Write(w, http.StatusNotFound)
		return
	}

	var req AssistantRequest
	if !bind(w, r, &req) {
		return
	}

	resp, err := s.generator.Generate(r.Context(), generation.Request{Flow: flow, Input: req.Input})
	if err != nil {
		middleware.GetLoggerFromContext(r.Context()).Error("Generation failed", "flow", flow, "error", err)
		if errors.Is(err, generation.ErrUnknownFlow) {
			NotFound("flow").Write(w, http.StatusNotFound)
			return
		}
		NewError(CodeGenerationFailed, "The assistant could not complete the request").Write(w, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
