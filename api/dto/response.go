package dto

import (
	"time"

	"postpilot/models"
)

// ErrorResponseDTO is the uniform error envelope.
type ErrorResponseDTO struct {
	Error   string   `json:"error" example:"source_type must be one of: social, blog"`
	Details []string `json:"details,omitempty"`
}

// MessageResponseDTO is the uniform simple-message envelope.
type MessageResponseDTO struct {
	Message string `json:"message" example:"analysis deleted"`
}

// AnalysisDTO exposes one analysis record. Raw ingested content is kept
// internal; the analysis result is only populated on detail responses.
type AnalysisDTO struct {
	ID                string                 `json:"id"`
	SourceType        string                 `json:"source_type"`
	SourceIdentifier  string                 `json:"source_identifier"`
	SourceDisplayName string                 `json:"source_display_name"`
	IngestionMethod   string                 `json:"ingestion_method"`
	Status            string                 `json:"status"`
	ItemCount         int                    `json:"item_count"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	AnalysisResult    *models.AnalysisResult `json:"analysis_result,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// FromAnalysis flattens a stored record into its transport form.
// includeResult controls whether the full analysis result rides along.
func FromAnalysis(a *models.Analysis, includeResult bool) AnalysisDTO {
	out := AnalysisDTO{
		ID:                a.ID.Hex(),
		SourceType:        string(a.SourceType),
		SourceIdentifier:  a.SourceIdentifier,
		SourceDisplayName: a.SourceDisplayName,
		IngestionMethod:   string(a.IngestionMethod),
		Status:            string(a.Status),
		ItemCount:         a.ItemCount,
		ErrorMessage:      a.ErrorMessage,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if includeResult {
		out.AnalysisResult = a.AnalysisResult
	}
	return out
}

// GeneratedConfigDTO exposes a config draft with hex IDs.
type GeneratedConfigDTO struct {
	ID         string                    `json:"id"`
	AnalysisID string                    `json:"analysis_id"`
	Status     string                    `json:"status"`
	Profile    models.PersonaProfile     `json:"profile"`
	PostTypes  []models.PostTypeTemplate `json:"post_types"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// FromGeneratedConfig flattens a stored draft into its transport form.
func FromGeneratedConfig(cfg *models.GeneratedConfig) GeneratedConfigDTO {
	return GeneratedConfigDTO{
		ID:         cfg.ID.Hex(),
		AnalysisID: cfg.AnalysisID.Hex(),
		Status:     string(cfg.Status),
		Profile:    cfg.Config.Profile,
		PostTypes:  cfg.Config.PostTypes,
		CreatedAt:  cfg.CreatedAt,
	}
}
