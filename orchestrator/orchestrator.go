// Package orchestrator drives one analysis record through its status state
// machine. It always runs detached from the HTTP request that launched it,
// so nothing above it will observe a failure: every error ends up persisted
// on the record, never propagated.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"postpilot/analyzer"
	"postpilot/llm"
	"postpilot/logger"
	"postpilot/models"
)

// Store is the slice of the analysis repository the orchestrator needs.
// The transition methods are compare-and-set: a false return means the
// record is no longer in the expected state and the write was skipped.
type Store interface {
	FindOwned(ctx context.Context, id primitive.ObjectID, userID string) (*models.Analysis, error)
	BeginAnalysis(ctx context.Context, id primitive.ObjectID, userID string) (bool, error)
	CompleteAnalysis(ctx context.Context, id primitive.ObjectID, result *models.AnalysisResult) (bool, error)
	FailAnalysis(ctx context.Context, id primitive.ObjectID, msg string) (bool, error)
}

// AnalyzerFactory resolves the source-specific analyzer. Indirected so tests
// can substitute analyzers without an LLM client.
type AnalyzerFactory func(sourceType models.SourceType) (analyzer.Analyzer, error)

type Orchestrator struct {
	store       Store
	newAnalyzer AnalyzerFactory
	timeout     time.Duration
}

func New(store Store, client llm.Client, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store: store,
		newAnalyzer: func(st models.SourceType) (analyzer.Analyzer, error) {
			return analyzer.ForSource(st, client)
		},
		timeout: timeout,
	}
}

// NewWithFactory is the test constructor.
func NewWithFactory(store Store, factory AnalyzerFactory, timeout time.Duration) *Orchestrator {
	return &Orchestrator{store: store, newAnalyzer: factory, timeout: timeout}
}

// Launch starts Run on its own goroutine and returns immediately.
func (o *Orchestrator) Launch(analysisID primitive.ObjectID, userID string) {
	go o.Run(analysisID, userID)
}

// Run executes one pending -> analyzing -> {completed, failed} pass. It uses
// a background context on purpose: the triggering request is long gone by
// the time analysis finishes.
func (o *Orchestrator) Run(analysisID primitive.ObjectID, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("panic in analysis run id=%s: %v", analysisID.Hex(), r)
			_, _ = o.store.FailAnalysis(context.Background(), analysisID, fmt.Sprintf("analysis failed: internal error: %v", r))
		}
	}()

	began, err := o.store.BeginAnalysis(ctx, analysisID, userID)
	if err != nil {
		logger.Log.Errorf("failed to begin analysis id=%s: %v", analysisID.Hex(), err)
		return
	}
	if !began {
		// Not in pending anymore: another run owns the record or ingestion
		// never completed. Nothing to do.
		logger.Log.Warnf("analysis id=%s not in pending state, skipping run", analysisID.Hex())
		return
	}

	record, err := o.store.FindOwned(ctx, analysisID, userID)
	if err != nil {
		o.fail(analysisID, fmt.Sprintf("analysis failed: could not load record: %v", err))
		return
	}
	if err := record.RawData.Validate(record.SourceType); err != nil {
		o.fail(analysisID, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	an, err := o.newAnalyzer(record.SourceType)
	if err != nil {
		o.fail(analysisID, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	result, err := an.Analyze(ctx, record)
	if err != nil {
		o.fail(analysisID, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	wrote, err := o.store.CompleteAnalysis(context.Background(), analysisID, result)
	if err != nil {
		logger.Log.Errorf("failed to persist analysis result id=%s: %v", analysisID.Hex(), err)
		return
	}
	if !wrote {
		logger.Log.Warnf("analysis id=%s left analyzing state mid-run, result discarded", analysisID.Hex())
		return
	}
	logger.Log.Infof("analysis completed id=%s source=%s", analysisID.Hex(), record.SourceType)
}

// fail writes the terminal failed state. The write uses a fresh context so a
// timed-out analysis can still persist its failure.
func (o *Orchestrator) fail(analysisID primitive.ObjectID, msg string) {
	wrote, err := o.store.FailAnalysis(context.Background(), analysisID, msg)
	if err != nil {
		logger.Log.Errorf("failed to persist analysis failure id=%s: %v", analysisID.Hex(), err)
		return
	}
	if !wrote {
		logger.Log.Warnf("analysis id=%s left analyzing state mid-run, failure discarded", analysisID.Hex())
		return
	}
	logger.Log.Warnf("analysis failed id=%s: %s", analysisID.Hex(), msg)
}
