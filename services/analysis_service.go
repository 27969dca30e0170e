package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"postpilot/crawler"
	"postpilot/export"
	"postpilot/logger"
	"postpilot/models"
)

// AnalysisStore is the repository surface the request path needs.
type AnalysisStore interface {
	Insert(ctx context.Context, a *models.Analysis) (primitive.ObjectID, error)
	FindOwned(ctx context.Context, id primitive.ObjectID, userID string) (*models.Analysis, error)
	ListByUser(ctx context.Context, userID string) ([]models.Analysis, error)
	SetRawData(ctx context.Context, id primitive.ObjectID, userID string, raw *models.RawData, itemCount int, displayName string) error
	MarkIngestionFailed(ctx context.Context, id primitive.ObjectID, userID string, msg string) error
	Delete(ctx context.Context, id primitive.ObjectID, userID string) error
}

// ConfigStore is the generated-config surface needed for cascade deletes and
// draft reads.
type ConfigStore interface {
	FindDraftByAnalysis(ctx context.Context, analysisID primitive.ObjectID, userID string) (*models.GeneratedConfig, error)
	DeleteByAnalysis(ctx context.Context, analysisID primitive.ObjectID, userID string) error
}

// CrawlAdapter is the crawl surface, an interface so handler tests can run
// without network access.
type CrawlAdapter interface {
	Crawl(ctx context.Context, baseURL, hintURL string) (*crawler.CrawlResult, error)
	Discover(ctx context.Context, baseURL, hintURL string) (*crawler.DiscoveryResult, error)
}

// Launcher starts the detached analysis run. The ingestion call returns to
// the client before analysis completes.
type Launcher func(analysisID primitive.ObjectID, userID string)

type AnalysisService struct {
	store   AnalysisStore
	configs ConfigStore
	crawler CrawlAdapter
	launch  Launcher
}

func NewAnalysisService(store AnalysisStore, configs ConfigStore, crawlAdapter CrawlAdapter, launch Launcher) *AnalysisService {
	return &AnalysisService{store: store, configs: configs, crawler: crawlAdapter, launch: launch}
}

type CreateInput struct {
	SourceType        models.SourceType
	SourceIdentifier  string
	SourceDisplayName string
	IngestionMethod   models.IngestionMethod
}

// Create registers a new analysis record in status pending.
func (s *AnalysisService) Create(ctx context.Context, userID string, in CreateInput) (*models.Analysis, error) {
	if !in.SourceType.Valid() {
		return nil, validationErrorf("source_type must be %q or %q", models.SourceSocial, models.SourceBlog)
	}
	if !in.IngestionMethod.Valid() {
		return nil, validationErrorf("ingestion_method must be %q or %q", models.IngestUpload, models.IngestCrawl)
	}
	if strings.TrimSpace(in.SourceIdentifier) == "" {
		return nil, validationErrorf("source_identifier is required")
	}

	a := &models.Analysis{
		UserID:            userID,
		SourceType:        in.SourceType,
		SourceIdentifier:  in.SourceIdentifier,
		SourceDisplayName: in.SourceDisplayName,
		IngestionMethod:   in.IngestionMethod,
	}
	if a.SourceDisplayName == "" {
		a.SourceDisplayName = in.SourceIdentifier
	}
	if _, err := s.store.Insert(ctx, a); err != nil {
		return nil, err
	}
	logger.Log.Infof("analysis created id=%s user=%s source=%s", a.ID.Hex(), userID, a.SourceType)
	return a, nil
}

// Get returns the owner's record.
func (s *AnalysisService) Get(ctx context.Context, userID, idStr string) (*models.Analysis, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	a, err := s.store.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return a, nil
}

// List returns the owner's records, newest first.
func (s *AnalysisService) List(ctx context.Context, userID string) ([]models.Analysis, error) {
	return s.store.ListByUser(ctx, userID)
}

// StatusView is the poll shape.
type StatusView struct {
	ID           string                `json:"id"`
	Status       models.AnalysisStatus `json:"status"`
	ItemCount    int                   `json:"item_count"`
	ErrorMessage string                `json:"error_message,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Status returns the poll view of one record.
func (s *AnalysisService) Status(ctx context.Context, userID, idStr string) (*StatusView, error) {
	a, err := s.Get(ctx, userID, idStr)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		ID:           a.ID.Hex(),
		Status:       a.Status,
		ItemCount:    a.ItemCount,
		ErrorMessage: a.ErrorMessage,
		UpdatedAt:    a.UpdatedAt,
	}, nil
}

// Delete removes the record and its generated configs.
func (s *AnalysisService) Delete(ctx context.Context, userID, idStr string) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}
	// Drafts go first: if the second step fails the record survives and a
	// retried delete re-runs the cascade, so nothing is orphaned.
	if err := s.configs.DeleteByAnalysis(ctx, id, userID); err != nil {
		return mapStoreErr(err)
	}
	if err := s.store.Delete(ctx, id, userID); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// UploadOutput is the upload-ingestion response shape.
type UploadOutput struct {
	Success        bool                   `json:"success"`
	ItemCount      int                    `json:"item_count"`
	ProfileSummary *models.ProfileSummary `json:"profile_summary,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// IngestUpload parses a vendor export, stores the normalized payload and
// launches analysis detached. A structural parse failure marks the record
// failed and surfaces the adapter's error list.
func (s *AnalysisService) IngestUpload(ctx context.Context, userID, idStr string, data []byte) (*UploadOutput, error) {
	record, err := s.loadForIngestion(ctx, userID, idStr, models.SourceSocial)
	if err != nil {
		return nil, err
	}

	parsed := export.Parse(data)
	if parsed.Failed() {
		msg := "upload parse failed: " + parsed.Errors[0]
		if err := s.store.MarkIngestionFailed(ctx, record.ID, userID, msg); err != nil {
			return nil, mapStoreErr(err)
		}
		return nil, &IngestionError{Msg: msg, Details: parsed.Errors}
	}
	if len(parsed.Items) == 0 {
		msg := "upload parse failed: export contained no usable media rows"
		if err := s.store.MarkIngestionFailed(ctx, record.ID, userID, msg); err != nil {
			return nil, mapStoreErr(err)
		}
		return nil, &IngestionError{Msg: msg, Details: parsed.Warnings}
	}

	raw := &models.RawData{Social: &models.SocialRawData{
		Profile: parsed.Profile,
		Items:   parsed.Items,
	}}
	displayName := ""
	if parsed.Profile != nil && parsed.Profile.Username != "" {
		displayName = parsed.Profile.Username
	}
	if err := s.store.SetRawData(ctx, record.ID, userID, raw, len(parsed.Items), displayName); err != nil {
		return nil, mapStoreErr(err)
	}

	s.launch(record.ID, userID)
	logger.Log.Infof("upload ingested id=%s items=%d warnings=%d", record.ID.Hex(), len(parsed.Items), len(parsed.Warnings))
	return &UploadOutput{
		Success:        true,
		ItemCount:      len(parsed.Items),
		ProfileSummary: parsed.Profile,
		Warnings:       parsed.Warnings,
	}, nil
}

// CrawlOutput is the crawl-ingestion response shape.
type CrawlOutput struct {
	Success    bool     `json:"success"`
	ItemCount  int      `json:"item_count"`
	TotalFound int      `json:"total_found"`
	Strategy   string   `json:"strategy"`
	Errors     []string `json:"errors,omitempty"`
}

// IngestCrawl crawls the competitor blog, stores extracted articles and
// launches analysis detached. Zero extracted articles is the only failure;
// partial extraction is a success with accumulated errors.
func (s *AnalysisService) IngestCrawl(ctx context.Context, userID, idStr, baseURL, displayName, hintURL string) (*CrawlOutput, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, validationErrorf("base_url is required")
	}
	record, err := s.loadForIngestion(ctx, userID, idStr, models.SourceBlog)
	if err != nil {
		return nil, err
	}

	result, err := s.crawler.Crawl(ctx, baseURL, hintURL)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}
	if result.Failed() {
		msg := "crawl failed: no articles could be extracted from " + baseURL
		if err := s.store.MarkIngestionFailed(ctx, record.ID, userID, msg); err != nil {
			return nil, mapStoreErr(err)
		}
		return nil, &IngestionError{Msg: msg, Details: result.Errors}
	}

	raw := &models.RawData{Blog: &models.BlogRawData{
		Posts:      result.Posts,
		Strategy:   result.Strategy,
		TotalFound: result.TotalFound,
	}}
	if err := s.store.SetRawData(ctx, record.ID, userID, raw, len(result.Posts), displayName); err != nil {
		return nil, mapStoreErr(err)
	}

	s.launch(record.ID, userID)
	logger.Log.Infof("crawl ingested id=%s strategy=%s posts=%d errors=%d",
		record.ID.Hex(), result.Strategy, len(result.Posts), len(result.Errors))
	return &CrawlOutput{
		Success:    true,
		ItemCount:  len(result.Posts),
		TotalFound: result.TotalFound,
		Strategy:   result.Strategy,
		Errors:     result.Errors,
	}, nil
}

// Discover is the stateless discovery probe: nothing is persisted.
func (s *AnalysisService) Discover(ctx context.Context, baseURL, hintURL string) (*crawler.DiscoveryResult, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, validationErrorf("base_url is required")
	}
	res, err := s.crawler.Discover(ctx, baseURL, hintURL)
	if err != nil {
		return nil, &IngestionError{Msg: err.Error()}
	}
	return res, nil
}

// loadForIngestion checks ownership, source type compatibility, and that no
// analysis run currently owns the record.
func (s *AnalysisService) loadForIngestion(ctx context.Context, userID, idStr string, want models.SourceType) (*models.Analysis, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	record, err := s.store.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if record.SourceType != want {
		return nil, validationErrorf("analysis has source_type %q, expected %q", record.SourceType, want)
	}
	if record.Status == models.StatusAnalyzing {
		return nil, validationErrorf("analysis is currently running, wait for it to finish")
	}
	return record, nil
}

func parseID(idStr string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return id, nil
}
