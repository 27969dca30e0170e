package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"postpilot/api/dto"
	"postpilot/api/middleware"
	"postpilot/generator"
	"postpilot/logger"
	"postpilot/models"
	"postpilot/services"
)

const maxUploadBytes = 20 << 20

// writeError maps service errors onto the uniform error envelope. Unknown
// errors are logged and returned as an opaque 500 so internals never leak.
func writeError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var ierr *services.IngestionError
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: verr.Msg})
	case errors.As(err, &ierr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: ierr.Msg, Details: ierr.Details})
	case errors.Is(err, generator.ErrNotReady):
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
	default:
		logger.ErrorWithFields("request failed", logger.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal error"})
	}
}

// CreateAnalysisHandler godoc
// @Summary      Create analysis
// @Description  Create a new competitor-analysis record in status pending
// @Tags         analyses
// @Accept       json
// @Param        request  body  dto.CreateAnalysisRequest  true  "Analysis source"
// @Produce      json
// @Success      201  {object}  dto.AnalysisDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /analyses [post]
func CreateAnalysisHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		a, err := svc.Create(c.Request.Context(), middleware.UserID(c), services.CreateInput{
			SourceType:        models.SourceType(req.SourceType),
			SourceIdentifier:  req.SourceIdentifier,
			SourceDisplayName: req.SourceDisplayName,
			IngestionMethod:   models.IngestionMethod(req.IngestionMethod),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.FromAnalysis(a, false))
	}
}

// ListAnalysesHandler godoc
// @Summary      List analyses
// @Description  List the caller's analysis records, newest first
// @Tags         analyses
// @Produce      json
// @Success      200  {array}  dto.AnalysisDTO
// @Router       /analyses [get]
func ListAnalysesHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := svc.List(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]dto.AnalysisDTO, 0, len(records))
		for i := range records {
			out = append(out, dto.FromAnalysis(&records[i], false))
		}
		c.JSON(http.StatusOK, out)
	}
}

// GetAnalysisHandler godoc
// @Summary      Get analysis
// @Description  Get one analysis record including its result when completed
// @Tags         analyses
// @Param        id   path   string  true  "Analysis ObjectID"
// @Produce      json
// @Success      200  {object}  dto.AnalysisDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /analyses/{id} [get]
func GetAnalysisHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromAnalysis(a, true))
	}
}

// DeleteAnalysisHandler godoc
// @Summary      Delete analysis
// @Description  Delete an analysis record and any config drafts derived from it
// @Tags         analyses
// @Param        id   path   string  true  "Analysis ObjectID"
// @Produce      json
// @Success      200  {object}  dto.MessageResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /analyses/{id} [delete]
func DeleteAnalysisHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "analysis deleted"})
	}
}

// StatusHandler godoc
// @Summary      Poll analysis status
// @Description  Lightweight status view for polling while analysis runs
// @Tags         analyses
// @Param        id   path   string  true  "Analysis ObjectID"
// @Produce      json
// @Success      200  {object}  services.StatusView
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /analyses/{id}/status [get]
func StatusHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Status(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// UploadHandler godoc
// @Summary      Upload exported content
// @Description  Parse an exported social-content file, store it and start analysis
// @Tags         ingestion
// @Accept       multipart/form-data
// @Param        id    path      string  true  "Analysis ObjectID"
// @Param        file  formData  file    true  "Vendor export (JSON or CSV)"
// @Produce      json
// @Success      200  {object}  services.UploadOutput
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /analyses/{id}/upload [post]
func UploadHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := readUpload(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		out, err := svc.IngestUpload(c.Request.Context(), middleware.UserID(c), c.Param("id"), data)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// readUpload accepts either a multipart "file" field or a raw request body.
func readUpload(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxUploadBytes))
	}
	if c.Request.Body == nil {
		return nil, errors.New("empty upload")
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty upload")
	}
	return data, nil
}

// CrawlHandler godoc
// @Summary      Crawl competitor blog
// @Description  Discover and extract recent articles, store them and start analysis
// @Tags         ingestion
// @Accept       json
// @Param        id       path  string            true  "Analysis ObjectID"
// @Param        request  body  dto.CrawlRequest  true  "Crawl target"
// @Produce      json
// @Success      200  {object}  services.CrawlOutput
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /analyses/{id}/crawl [post]
func CrawlHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CrawlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		out, err := svc.IngestCrawl(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.BaseURL, req.DisplayName, req.HintURL)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// DiscoverHandler godoc
// @Summary      Probe crawlability
// @Description  Report which discovery strategy works for a domain without persisting anything
// @Tags         ingestion
// @Accept       json
// @Param        request  body  dto.DiscoverRequest  true  "Probe target"
// @Produce      json
// @Success      200  {object}  crawler.DiscoveryResult
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /crawl/discover [post]
func DiscoverHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.DiscoverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		res, err := svc.Discover(c.Request.Context(), req.BaseURL, req.HintURL)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// GenerateHandler godoc
// @Summary      Generate config draft
// @Description  Derive a persona profile and post-type templates from a completed analysis
// @Tags         generation
// @Accept       json
// @Param        id       path  string               true   "Analysis ObjectID"
// @Param        request  body  dto.GenerateRequest  false  "Generation options"
// @Produce      json
// @Success      200  {object}  generator.Output
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /analyses/{id}/generate [post]
func GenerateHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.GenerateRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
				return
			}
		}
		out, err := svc.Generate(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.DisplayName)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// GetConfigHandler godoc
// @Summary      Get config draft
// @Description  Fetch the current draft config generated from this analysis
// @Tags         generation
// @Param        id   path   string  true  "Analysis ObjectID"
// @Produce      json
// @Success      200  {object}  dto.GeneratedConfigDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /analyses/{id}/config [get]
func GetConfigHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := svc.GetDraft(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromGeneratedConfig(cfg))
	}
}
