package runs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fedestu/RPA-Challenge/newsfeed"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIServer represents the read-only HTTP API over the run ledger.
type APIServer struct {
	store *Store
}

// NewAPIServer creates a new run API server.
func NewAPIServer(store *Store) *APIServer {
	return &APIServer{
		store: store,
	}
}

// SetupRouter configures the Gin router with all run API routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/runs", s.HandleListRuns)
	api.GET("/runs/:id", s.HandleGetRun)
	api.GET("/runs/:id/articles", s.HandleListArticles)
	api.DELETE("/runs/:id", s.HandleDeleteRun)

	return router
}

// ListRunsResponse represents the response for GET /api/v1/runs.
type ListRunsResponse struct {
	Runs  []Run `json:"runs"`
	Total int   `json:"total"`
}

// ListArticlesResponse represents the response for GET
// /api/v1/runs/{id}/articles.
type ListArticlesResponse struct {
	RunID    uuid.UUID                `json:"run_id"`
	Articles []newsfeed.ArticleRecord `json:"articles"`
	Total    int                      `json:"total"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *APIServer) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRunNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// HandleListRuns handles GET /api/v1/runs.
func (s *APIServer) HandleListRuns(c *gin.Context) {
	filter := RunFilter{}

	if status := c.Query("status"); status != "" {
		if err := ValidateStatus(status); err != nil {
			s.handleError(c, err)
			return
		}
		filter.Status = &status
	}

	if phrase := c.Query("search_phrase"); phrase != "" {
		filter.SearchPhrase = &phrase
	}

	var err error
	if filter.Limit, err = nonNegativeQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "limit must be a non-negative integer"))
		return
	}
	if filter.Offset, err = nonNegativeQuery(c, "offset"); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "offset must be a non-negative integer"))
		return
	}

	runs, err := s.store.ListRuns(filter)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if runs == nil {
		runs = []Run{}
	}

	c.JSON(http.StatusOK, ListRunsResponse{
		Runs:  runs,
		Total: len(runs),
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}.
func (s *APIServer) HandleGetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid run ID"))
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// HandleListArticles handles GET /api/v1/runs/{id}/articles.
func (s *APIServer) HandleListArticles(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid run ID"))
		return
	}

	articles, err := s.store.ListArticles(runID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListArticlesResponse{
		RunID:    runID,
		Articles: articles,
		Total:    len(articles),
	})
}

// HandleDeleteRun handles DELETE /api/v1/runs/{id}.
func (s *APIServer) HandleDeleteRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid run ID"))
		return
	}

	if err := s.store.DeleteRun(runID); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func nonNegativeQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative value")
	}
	return n, nil
}
