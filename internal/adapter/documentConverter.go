package adapter

import (
	"github.com/ragdemo/docchat/internal/api"
	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/internal/rag"
)

func ToDocumentsResponse(hits []commonModels.SearchHit) api.DocumentsResponse {
	previews := make([]api.DocumentPreview, 0, len(hits))
	for _, hit := range hits {
		previews = append(previews, ToDocumentPreview(hit))
	}
	return api.DocumentsResponse{Documents: previews}
}

func ToDocumentPreview(hit commonModels.SearchHit) api.DocumentPreview {
	meta := hit.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return api.DocumentPreview{
		Metadata: meta,
		Content:  rag.Truncate(hit.Content, config.PreviewLength),
	}
}

func BadRequest(message string) api.ErrorResponse {
	return api.ErrorResponse{Error: message}
}
