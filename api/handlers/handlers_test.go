package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"postpilot/api/handlers"
	"postpilot/api/middleware"
	"postpilot/crawler"
	"postpilot/generator"
	"postpilot/llm"
	"postpilot/models"
	"postpilot/services"
	"postpilot/storetest"
)

type noopCrawler struct{}

func (noopCrawler) Crawl(ctx context.Context, baseURL, hintURL string) (*crawler.CrawlResult, error) {
	return &crawler.CrawlResult{}, nil
}

func (noopCrawler) Discover(ctx context.Context, baseURL, hintURL string) (*crawler.DiscoveryResult, error) {
	return &crawler.DiscoveryResult{}, nil
}

type env struct {
	router  *gin.Engine
	store   *storetest.AnalysisStore
	configs *storetest.ConfigStore
}

// routePrompts answers persona and post-type prompts with canned JSON.
func routePrompts(profile, postTypes string) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, system, prompt string) (string, error) {
		if strings.Contains(system, "persona") {
			return profile, nil
		}
		return postTypes, nil
	})
}

func newEnv(t *testing.T, client llm.Client) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storetest.NewAnalysisStore()
	configs := storetest.NewConfigStore()
	analysisSvc := services.NewAnalysisService(store, configs, noopCrawler{}, func(primitive.ObjectID, string) {})
	if client == nil {
		client = llm.ClientFunc(func(ctx context.Context, system, prompt string) (string, error) {
			return "{}", nil
		})
	}
	stage := generator.New(client, configs, 4, 0)
	generationSvc := services.NewGenerationService(store, configs, stage)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.RequireOwner())
	api.POST("/analyses", handlers.CreateAnalysisHandler(analysisSvc))
	api.GET("/analyses", handlers.ListAnalysesHandler(analysisSvc))
	api.GET("/analyses/:id", handlers.GetAnalysisHandler(analysisSvc))
	api.DELETE("/analyses/:id", handlers.DeleteAnalysisHandler(analysisSvc))
	api.GET("/analyses/:id/status", handlers.StatusHandler(analysisSvc))
	api.POST("/analyses/:id/generate", handlers.GenerateHandler(generationSvc))
	api.GET("/analyses/:id/config", handlers.GetConfigHandler(generationSvc))

	return &env{router: r, store: store, configs: configs}
}

func (e *env) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestMissingIdentityRejected(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodGet, "/api/v1/analyses", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndList(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodPost, "/api/v1/analyses", "u1", gin.H{
		"source_type":       "social",
		"source_identifier": "@rivalkitchen",
		"ingestion_method":  "upload",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)

	list := e.do(http.MethodGet, "/api/v1/analyses", "u1", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	// other users never see the record
	otherList := e.do(http.MethodGet, "/api/v1/analyses", "u2", nil)
	var otherItems []map[string]any
	require.NoError(t, json.Unmarshal(otherList.Body.Bytes(), &otherItems))
	assert.Empty(t, otherItems)
}

func TestCreateRejectsUnknownSourceType(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodPost, "/api/v1/analyses", "u1", gin.H{
		"source_type":       "podcast",
		"source_identifier": "x",
		"ingestion_method":  "upload",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "source_type")
}

func TestGetNotFoundIsOpaque(t *testing.T) {
	e := newEnv(t, nil)
	id := e.store.Seed(&models.Analysis{UserID: "owner", SourceType: models.SourceSocial, Status: models.StatusPending})

	missing := e.do(http.MethodGet, "/api/v1/analyses/"+primitive.NewObjectID().Hex(), "owner", nil)
	foreign := e.do(http.MethodGet, "/api/v1/analyses/"+id.Hex(), "intruder", nil)

	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	// identical body, existence is not leaked
	assert.JSONEq(t, missing.Body.String(), foreign.Body.String())
}

func TestStatusPolling(t *testing.T) {
	e := newEnv(t, nil)
	id := e.store.Seed(&models.Analysis{
		UserID:       "u1",
		SourceType:   models.SourceBlog,
		Status:       models.StatusFailed,
		ItemCount:    3,
		ErrorMessage: "analysis failed: blog analysis: invalid response",
	})

	rec := e.do(http.MethodGet, "/api/v1/analyses/"+id.Hex()+"/status", "u1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Status       string `json:"status"`
		ItemCount    int    `json:"item_count"`
		ErrorMessage string `json:"error_message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "failed", view.Status)
	assert.Equal(t, 3, view.ItemCount)
	assert.Contains(t, view.ErrorMessage, "analysis failed")
}

const testProfile = `{
  "name": "The Builder",
  "description": "persona",
  "tone": "direct",
  "target_audience": "engineers",
  "writing_style": "plain",
  "required_hashtags": ["#golang"],
  "sample_phrases": ["ship it"]
}`

const testPostTypes = `{
  "post_types": [
    {
      "name": "Deep dive",
      "description": "long form",
      "prompt_template": "Write about {topic}",
      "structure": "intro / body / close",
      "sample_output": "How we cut p99 latency...",
      "tags": ["#engineering"]
    }
  ]
}`

func completedAnalysis(userID string) *models.Analysis {
	return &models.Analysis{
		UserID:     userID,
		SourceType: models.SourceSocial,
		Status:     models.StatusCompleted,
		AnalysisResult: &models.AnalysisResult{Social: &models.SocialAnalysis{
			ContentCategories: map[string]float64{"educational": 1},
			ToneAnalysis:      &models.ToneAnalysis{PrimaryTone: "warm"},
			HashtagStrategy:   &models.HashtagStrategy{AvgPerPost: 2},
			PostingCadence:    "daily",
			Summary:           "ok",
		}},
	}
}

func TestGenerateFromCompletedAnalysis(t *testing.T) {
	e := newEnv(t, routePrompts(testProfile, testPostTypes))
	id := e.store.Seed(completedAnalysis("u1"))

	rec := e.do(http.MethodPost, "/api/v1/analyses/"+id.Hex()+"/generate", "u1", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, e.configs.DraftCount(id))

	cfgRec := e.do(http.MethodGet, "/api/v1/analyses/"+id.Hex()+"/config", "u1", nil)
	require.Equal(t, http.StatusOK, cfgRec.Code)
	var cfg struct {
		Status  string `json:"status"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(cfgRec.Body.Bytes(), &cfg))
	assert.Equal(t, "draft", cfg.Status)
	assert.Equal(t, "The Builder", cfg.Profile.Name)
}

func TestGenerateOnPendingRejected(t *testing.T) {
	e := newEnv(t, routePrompts(testProfile, testPostTypes))
	id := e.store.Seed(&models.Analysis{UserID: "u1", SourceType: models.SourceSocial, Status: models.StatusPending})

	rec := e.do(http.MethodPost, "/api/v1/analyses/"+id.Hex()+"/generate", "u1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, e.configs.DraftCount(id))
}

func TestConfigNotFoundBeforeGeneration(t *testing.T) {
	e := newEnv(t, nil)
	id := e.store.Seed(completedAnalysis("u1"))

	rec := e.do(http.MethodGet, "/api/v1/analyses/"+id.Hex()+"/config", "u1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAnalysis(t *testing.T) {
	e := newEnv(t, routePrompts(testProfile, testPostTypes))
	id := e.store.Seed(completedAnalysis("u1"))
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/v1/analyses/"+id.Hex()+"/generate", "u1", nil).Code)

	rec := e.do(http.MethodDelete, "/api/v1/analyses/"+id.Hex(), "u1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, e.store.Get(id))
	assert.Equal(t, 0, e.configs.DraftCount(id))
}
