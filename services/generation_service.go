package services

import (
	"context"

	"postpilot/generator"
	"postpilot/models"
)

type GenerationService struct {
	store   AnalysisStore
	configs ConfigStore
	stage   *generator.Stage
}

func NewGenerationService(store AnalysisStore, configs ConfigStore, stage *generator.Stage) *GenerationService {
	return &GenerationService{store: store, configs: configs, stage: stage}
}

// Generate runs the generation stage for a completed analysis. The stage
// itself enforces the completed precondition and the single-draft invariant.
func (s *GenerationService) Generate(ctx context.Context, userID, idStr, displayName string) (*generator.Output, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	record, err := s.store.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return s.stage.Generate(ctx, record, displayName)
}

// GetDraft returns the current draft config for an analysis.
func (s *GenerationService) GetDraft(ctx context.Context, userID, idStr string) (*models.GeneratedConfig, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	// Ownership check first so a foreign analysis id reads as not found.
	if _, err := s.store.FindOwned(ctx, id, userID); err != nil {
		return nil, mapStoreErr(err)
	}
	cfg, err := s.configs.FindDraftByAnalysis(ctx, id, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return cfg, nil
}
