// Package storetest provides in-memory store implementations for tests that
// exercise the pipeline without MongoDB.
package storetest

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"postpilot/models"
)

// AnalysisStore is a map-backed stand-in for repositories.AnalysisRepository.
type AnalysisStore struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]*models.Analysis
}

func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{records: map[primitive.ObjectID]*models.Analysis{}}
}

// Seed inserts a record directly, bypassing lifecycle rules.
func (s *AnalysisStore) Seed(a *models.Analysis) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	s.records[a.ID] = &cp
	return a.ID
}

// Get returns the stored record for assertions.
func (s *AnalysisStore) Get(id primitive.ObjectID) *models.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.records[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

func (s *AnalysisStore) Insert(ctx context.Context, a *models.Analysis) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.Status = models.StatusPending
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.records[a.ID] = &cp
	return a.ID, nil
}

func (s *AnalysisStore) FindOwned(ctx context.Context, id primitive.ObjectID, userID string) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok || a.UserID != userID {
		return nil, mongo.ErrNoDocuments
	}
	cp := *a
	return &cp, nil
}

func (s *AnalysisStore) ListByUser(ctx context.Context, userID string) ([]models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Analysis
	for _, a := range s.records {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *AnalysisStore) SetRawData(ctx context.Context, id primitive.ObjectID, userID string, raw *models.RawData, itemCount int, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok || a.UserID != userID {
		return mongo.ErrNoDocuments
	}
	a.RawData = raw
	a.ItemCount = itemCount
	a.Status = models.StatusPending
	a.ErrorMessage = ""
	a.AnalysisResult = nil
	if displayName != "" {
		a.SourceDisplayName = displayName
	}
	a.UpdatedAt = time.Now()
	return nil
}

func (s *AnalysisStore) MarkIngestionFailed(ctx context.Context, id primitive.ObjectID, userID string, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok || a.UserID != userID {
		return mongo.ErrNoDocuments
	}
	a.Status = models.StatusFailed
	a.ErrorMessage = msg
	a.AnalysisResult = nil
	a.UpdatedAt = time.Now()
	return nil
}

func (s *AnalysisStore) BeginAnalysis(ctx context.Context, id primitive.ObjectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok || a.UserID != userID || a.Status != models.StatusPending || a.RawData == nil {
		return false, nil
	}
	a.Status = models.StatusAnalyzing
	a.UpdatedAt = time.Now()
	return true, nil
}

func (s *AnalysisStore) CompleteAnalysis(ctx context.Context, id primitive.ObjectID, result *models.AnalysisResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok || a.Status != models.StatusAnalyzing {
		return false, nil
	}
	a.Status = models.StatusCompleted
	a.AnalysisResult = result
	a.ErrorMessage = ""
	a.UpdatedAt = time.Now()
	return true, nil
}

func (s *AnalysisStore) FailAnalysis(ctx context.Context, id primitive.ObjectID, msg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok || a.Status != models.StatusAnalyzing {
		return false, nil
	}
	a.Status = models.StatusFailed
	a.ErrorMessage = msg
	a.AnalysisResult = nil
	a.UpdatedAt = time.Now()
	return true, nil
}

func (s *AnalysisStore) Delete(ctx context.Context, id primitive.ObjectID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[id]
	if !ok || a.UserID != userID {
		return mongo.ErrNoDocuments
	}
	delete(s.records, id)
	return nil
}

// ConfigStore is a map-backed stand-in for
// repositories.GeneratedConfigRepository.
type ConfigStore struct {
	mu      sync.Mutex
	configs map[primitive.ObjectID]*models.GeneratedConfig
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{configs: map[primitive.ObjectID]*models.GeneratedConfig{}}
}

func (s *ConfigStore) ReplaceDraft(ctx context.Context, cfg *models.GeneratedConfig) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.configs {
		if existing.AnalysisID == cfg.AnalysisID && existing.UserID == cfg.UserID && existing.Status == models.ConfigDraft {
			delete(s.configs, id)
		}
	}
	cfg.ID = primitive.NewObjectID()
	cfg.Status = models.ConfigDraft
	cfg.CreatedAt = time.Now()
	cp := *cfg
	s.configs[cfg.ID] = &cp
	return cfg.ID, nil
}

func (s *ConfigStore) FindDraftByAnalysis(ctx context.Context, analysisID primitive.ObjectID, userID string) (*models.GeneratedConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cfg := range s.configs {
		if cfg.AnalysisID == analysisID && cfg.UserID == userID && cfg.Status == models.ConfigDraft {
			cp := *cfg
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *ConfigStore) DeleteByAnalysis(ctx context.Context, analysisID primitive.ObjectID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cfg := range s.configs {
		if cfg.AnalysisID == analysisID && cfg.UserID == userID {
			delete(s.configs, id)
		}
	}
	return nil
}

// DraftCount returns how many drafts exist for the analysis, for invariant
// assertions.
func (s *ConfigStore) DraftCount(analysisID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cfg := range s.configs {
		if cfg.AnalysisID == analysisID && cfg.Status == models.ConfigDraft {
			n++
		}
	}
	return n
}
