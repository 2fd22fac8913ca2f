package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ragdemo/docchat/internal/adapter"
	"github.com/ragdemo/docchat/internal/api"
	"github.com/ragdemo/docchat/internal/metrics"
	"github.com/ragdemo/docchat/internal/rag"
	"github.com/ragdemo/docchat/internal/rag/llm"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

const (
	msgMissingPrompt    = "missing prompt"
	msgNoDocuments      = "no document found in the vector store"
	msgNoDocumentsChat  = "no document found for the question"
	msgGenerationFailed = "error generating with the model"
	msgModelCallFailed  = "error calling the model: "
	msgSearchFailed     = "error searching documents"
)

type RequestHandler struct {
	service rag.Service
	logger  *logger_i.Logger
}

func NewRequestHandler(service rag.Service) *RequestHandler {
	return &RequestHandler{
		service: service,
		logger:  logger_i.NewLogger("RequestHandler"),
	}
}

// CheckDocumentsHandler godoc
// @Summary      Check the indexed documents
// @Description  Runs a fixed test query against the vector store and returns the top matches with their metadata and the first 200 characters of content.
// @Tags         Documents
// @Produce      json
// @Success      200  {object}  api.DocumentsResponse
// @Failure      404  {object}  api.ErrorResponse  "No document in the store"
// @Failure      500  {object}  api.ErrorResponse
// @Router       /api/check_documents [get]
func (h *RequestHandler) CheckDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithTrace(r.Context())
	if !validateContext(r.Context(), log) {
		return
	}

	hits, err := h.service.CheckDocuments(r.Context())
	if err != nil {
		if errors.Is(err, rag.ErrNoDocuments) {
			WriteErrorResponse(w, http.StatusNotFound, msgNoDocuments)
			return
		}
		log.Error("Check documents failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, msgSearchFailed)
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentsResponse(hits), log)
}

// ChatHandler godoc
// @Summary      Ask a question about the documents
// @Description  Retrieves the closest chunks, builds a prompt and streams the model output back as plain text, unmodified.
// @Tags         Chat
// @Accept       json
// @Produce      plain
// @Param        request  body      api.ChatRequest  true  "The question"
// @Success      200      {string}  string           "Raw model stream"
// @Failure      400      {object}  api.ErrorResponse  "Missing prompt"
// @Failure      404      {object}  api.ErrorResponse  "No matching document"
// @Failure      500      {object}  api.ErrorResponse  "Model service failure"
// @Router       /api/chat [post]
func (h *RequestHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithTrace(r.Context())
	if !validateContext(r.Context(), log) {
		return
	}

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Error("Couldn't close the chat request body", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		log.Warn("Bad chat request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, msgMissingPrompt)
		return
	}
	if requestData.Prompt == "" {
		WriteErrorResponse(w, http.StatusBadRequest, msgMissingPrompt)
		return
	}

	stream, err := h.service.Chat(r.Context(), requestData.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrNoDocuments):
			WriteErrorResponse(w, http.StatusNotFound, msgNoDocumentsChat)
		case errors.Is(err, llm.ErrUpstreamStatus):
			WriteErrorResponse(w, http.StatusInternalServerError, msgGenerationFailed)
		default:
			log.Error("Chat failed before streaming", "error", err)
			WriteErrorResponse(w, http.StatusInternalServerError, msgModelCallFailed+err.Error())
		}
		return
	}

	relayStream(w, stream, log)
}

// relayStream forwards every chunk as soon as it arrives. An upstream failure
// after the first byte aborts the connection so the client sees a broken
// response instead of a clean end.
func relayStream(w http.ResponseWriter, stream *llm.Stream, log *logger_i.Logger) {
	defer stream.Close()
	metrics.StreamStarted()
	defer metrics.StreamEnded()

	controller := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	for chunk := range stream.Chunks() {
		if chunk.Err != nil {
			log.Error("Model stream broke", "error", chunk.Err)
			panic(http.ErrAbortHandler)
		}
		if _, err := w.Write(chunk.Data); err != nil {
			log.Warn("Client went away during stream", "error", err)
			return
		}
		metrics.AddStreamBytes(len(chunk.Data))
		if err := controller.Flush(); err != nil {
			log.Debug("Response writer cannot flush", "error", err)
		}
	}
}
