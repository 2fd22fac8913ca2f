package api

type ErrorResponse struct {
	Error string `json:"error" example:"No document found for the question"`
}

type DocumentPreview struct {
	Metadata map[string]any `json:"metadata"`
	Content  string         `json:"content" example:"first 200 characters of the chunk"`
}

type DocumentsResponse struct {
	Documents []DocumentPreview `json:"documents"`
}

// requests---------------------

type ChatRequest struct {
	Prompt string `json:"prompt" validate:"required" example:"What does grid A cover?"`
}
