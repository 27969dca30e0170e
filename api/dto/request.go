package dto

// CreateAnalysisRequest starts a new analysis record.
type CreateAnalysisRequest struct {
	SourceType        string `json:"source_type" binding:"required" example:"social"`
	SourceIdentifier  string `json:"source_identifier" binding:"required" example:"@rivalkitchen"`
	SourceDisplayName string `json:"source_display_name" example:"Rival Kitchen"`
	IngestionMethod   string `json:"ingestion_method" binding:"required" example:"upload"`
}

// CrawlRequest points the crawler at a competitor blog.
type CrawlRequest struct {
	BaseURL     string `json:"base_url" binding:"required" example:"https://rival.dev"`
	DisplayName string `json:"display_name" example:"Rival Engineering Blog"`
	HintURL     string `json:"hint_url" example:"https://rival.dev/sitemap.xml"`
}

// DiscoverRequest probes a domain without persisting anything.
type DiscoverRequest struct {
	BaseURL string `json:"base_url" binding:"required" example:"https://rival.dev"`
	HintURL string `json:"hint_url" example:"https://rival.dev/blog"`
}

// GenerateRequest triggers config generation for a completed analysis.
type GenerateRequest struct {
	DisplayName string `json:"display_name" example:"Rival Kitchen persona"`
}
