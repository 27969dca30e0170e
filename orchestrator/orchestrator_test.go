package orchestrator_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpilot/analyzer"
	"postpilot/models"
	"postpilot/orchestrator"
	"postpilot/storetest"
)

type stubAnalyzer struct {
	result *models.AnalysisResult
	err    error
	panics bool
}

func (s *stubAnalyzer) Analyze(ctx context.Context, a *models.Analysis) (*models.AnalysisResult, error) {
	if s.panics {
		panic("analyzer exploded")
	}
	return s.result, s.err
}

func factoryFor(a analyzer.Analyzer) orchestrator.AnalyzerFactory {
	return func(models.SourceType) (analyzer.Analyzer, error) { return a, nil }
}

func pendingSocialRecord(store *storetest.AnalysisStore) *models.Analysis {
	rec := &models.Analysis{
		UserID:     "user-1",
		SourceType: models.SourceSocial,
		Status:     models.StatusPending,
		RawData: &models.RawData{Social: &models.SocialRawData{
			Items: []models.ContentItem{{ItemID: "m1", Kind: models.KindImage, Text: "hi"}},
		}},
		ItemCount: 1,
	}
	store.Seed(rec)
	return rec
}

func completedResult() *models.AnalysisResult {
	return &models.AnalysisResult{Social: &models.SocialAnalysis{
		ContentCategories: map[string]float64{"educational": 1},
		ToneAnalysis:      &models.ToneAnalysis{PrimaryTone: "warm"},
		HashtagStrategy:   &models.HashtagStrategy{AvgPerPost: 1},
		PostingCadence:    "daily",
		Summary:           "ok",
	}}
}

func TestRunCompletes(t *testing.T) {
	store := storetest.NewAnalysisStore()
	rec := pendingSocialRecord(store)

	o := orchestrator.NewWithFactory(store, factoryFor(&stubAnalyzer{result: completedResult()}), time.Minute)
	o.Run(rec.ID, rec.UserID)

	saved := store.Get(rec.ID)
	assert.Equal(t, models.StatusCompleted, saved.Status)
	assert.NotNil(t, saved.AnalysisResult)
	assert.Empty(t, saved.ErrorMessage)
}

func TestRunFailsOnAnalyzerError(t *testing.T) {
	store := storetest.NewAnalysisStore()
	rec := pendingSocialRecord(store)

	o := orchestrator.NewWithFactory(store, factoryFor(&stubAnalyzer{err: fmt.Errorf("response is missing tone_analysis")}), time.Minute)
	o.Run(rec.ID, rec.UserID)

	saved := store.Get(rec.ID)
	assert.Equal(t, models.StatusFailed, saved.Status)
	assert.Nil(t, saved.AnalysisResult)
	assert.Contains(t, saved.ErrorMessage, "analysis failed")
	assert.Contains(t, saved.ErrorMessage, "tone_analysis")
}

func TestRunRecoversFromPanic(t *testing.T) {
	store := storetest.NewAnalysisStore()
	rec := pendingSocialRecord(store)

	o := orchestrator.NewWithFactory(store, factoryFor(&stubAnalyzer{panics: true}), time.Minute)
	require.NotPanics(t, func() { o.Run(rec.ID, rec.UserID) })

	saved := store.Get(rec.ID)
	assert.Equal(t, models.StatusFailed, saved.Status)
	assert.Contains(t, saved.ErrorMessage, "internal error")
}

func TestRunSkipsRecordNotInPending(t *testing.T) {
	store := storetest.NewAnalysisStore()
	rec := &models.Analysis{
		UserID:     "user-1",
		SourceType: models.SourceSocial,
		Status:     models.StatusCompleted,
		RawData:    &models.RawData{Social: &models.SocialRawData{Items: []models.ContentItem{{ItemID: "x"}}}},
		AnalysisResult: completedResult(),
	}
	store.Seed(rec)

	o := orchestrator.NewWithFactory(store, factoryFor(&stubAnalyzer{err: fmt.Errorf("should never run")}), time.Minute)
	o.Run(rec.ID, rec.UserID)

	// Terminal state untouched: no transition out of completed without a new
	// ingestion.
	saved := store.Get(rec.ID)
	assert.Equal(t, models.StatusCompleted, saved.Status)
	assert.NotNil(t, saved.AnalysisResult)
}

func TestRunSkipsRecordWithoutRawData(t *testing.T) {
	store := storetest.NewAnalysisStore()
	rec := &models.Analysis{UserID: "user-1", SourceType: models.SourceSocial, Status: models.StatusPending}
	store.Seed(rec)

	o := orchestrator.NewWithFactory(store, factoryFor(&stubAnalyzer{result: completedResult()}), time.Minute)
	o.Run(rec.ID, rec.UserID)

	saved := store.Get(rec.ID)
	assert.Equal(t, models.StatusPending, saved.Status)
}

func TestRunStatusInvariantsHold(t *testing.T) {
	// After every terminal write: result != nil iff completed,
	// errorMessage != "" iff failed.
	store := storetest.NewAnalysisStore()
	good := pendingSocialRecord(store)
	bad := pendingSocialRecord(store)

	orchestrator.NewWithFactory(store, factoryFor(&stubAnalyzer{result: completedResult()}), time.Minute).Run(good.ID, good.UserID)
	orchestrator.NewWithFactory(store, factoryFor(&stubAnalyzer{err: fmt.Errorf("boom")}), time.Minute).Run(bad.ID, bad.UserID)

	g, b := store.Get(good.ID), store.Get(bad.ID)
	assert.True(t, (g.AnalysisResult != nil) == (g.Status == models.StatusCompleted))
	assert.True(t, (g.ErrorMessage != "") == (g.Status == models.StatusFailed))
	assert.True(t, (b.AnalysisResult != nil) == (b.Status == models.StatusCompleted))
	assert.True(t, (b.ErrorMessage != "") == (b.Status == models.StatusFailed))
}
