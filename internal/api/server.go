package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/funding-tracker/internal/ai"
	"github.com/david/funding-tracker/internal/auth"
	"github.com/david/funding-tracker/internal/db"
	"github.com/david/funding-tracker/internal/ingest"
	"github.com/david/funding-tracker/internal/models"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Echo        *echo.Echo
	DB          *pgxpool.Pool
	AI          *ai.OllamaClient
	Registry    *ingest.Registry

	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    any                `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool, registry *ingest.Registry) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	ollamaHost := os.Getenv("OLLAMA_HOST")
	aiClient := ai.NewOllamaClient(ollamaHost, "", "")

	s := &Server{
		DB:          pool,
		Store:       db.NewStore(pool),
		AuthService: auth.NewService(pool),
		Echo:        e,
		AI:          aiClient,
		Registry:    registry,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/events", s.handleListEvents)
	api.GET("/events/:id", s.handleGetEvent)
	api.GET("/companies", s.handleListCompanies)
	api.GET("/companies/:id", s.handleGetCompany)
	api.GET("/investors", s.handleListInvestors)
	api.GET("/sources", s.handleGetSources)
	api.GET("/stats", s.handleGetStats)

	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/scrape", s.handleTriggerScrape)
	admin.POST("/process", s.handleProcessUnprocessed)
	admin.POST("/dedupe", s.handleDedupe)
	admin.GET("/report", s.handleValidationReport)
	admin.GET("/job/:id", s.handleJobStatus)

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	saved := api.Group("/saved")
	saved.Use(auth.RequireUser)
	saved.POST("/:id", s.handleSaveEvent)
	saved.DELETE("/:id", s.handleUnsaveEvent)
	saved.GET("", s.handleGetSavedEvents)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListEvents(c echo.Context) error {
	q := c.QueryParam("q")

	limit := 20
	offset := 0
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}

	var minAmount, maxAmount, minScore float64
	if v, err := strconv.ParseFloat(c.QueryParam("min_amount"), 64); err == nil && v > 0 {
		minAmount = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("max_amount"), 64); err == nil && v > 0 {
		maxAmount = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("min_score"), 64); err == nil && v > 0 && v <= 1 {
		minScore = v
	}

	// Semantic search: embed the query, fall back to keyword search when
	// the embedding service is unavailable.
	var queryEmbedding []float32
	if q != "" {
		aiCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		vec, err := s.AI.GenerateEmbedding(aiCtx, q)
		if err != nil {
			c.Logger().Errorf("Failed to generate query embedding: %v", err)
		} else {
			queryEmbedding = vec
		}
	}

	result, err := s.Store.ListFundingEvents(c.Request().Context(), db.ListParams{
		Query:          q,
		QueryEmbedding: queryEmbedding,
		Sector:         c.QueryParam("sector"),
		Stage:          c.QueryParam("stage"),
		SourceName:     c.QueryParam("source"),
		MinAmount:      minAmount,
		MaxAmount:      maxAmount,
		MinScore:       minScore,
		Limit:          limit,
		Offset:         offset,
		SortBy:         c.QueryParam("sort"),
	})
	if err != nil {
		c.Logger().Errorf("Failed to list funding events: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetEvent(c echo.Context) error {
	event, err := s.Store.GetFundingEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if db.IsErrNoRows(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, event)
}

func (s *Server) handleListCompanies(c echo.Context) error {
	limit := 50
	offset := 0
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}

	companies, err := s.Store.ListCompanies(c.Request().Context(), c.QueryParam("q"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if companies == nil {
		companies = []models.Company{}
	}
	return c.JSON(http.StatusOK, companies)
}

func (s *Server) handleGetCompany(c echo.Context) error {
	company, err := s.Store.GetCompany(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, company)
}

func (s *Server) handleListInvestors(c echo.Context) error {
	limit := 100
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	investors, err := s.Store.ListInvestors(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if investors == nil {
		investors = []models.Investor{}
	}
	return c.JSON(http.StatusOK, investors)
}

func (s *Server) handleGetSources(c echo.Context) error {
	sources, err := s.Store.GetSources(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(http.StatusOK, sources)
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

// handleTriggerScrape starts a background scraping cycle over all enabled
// sources and returns 202 with a job ID to poll.
func (s *Server) handleTriggerScrape(c echo.Context) error {
	return s.startJob(c, "scrape", func(ctx context.Context, pipeline *ingest.Pipeline) (any, error) {
		stored, err := pipeline.RunScrapingCycle(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"events_stored": stored}, nil
	})
}

// handleProcessUnprocessed reprocesses stored articles that never made it
// through the pipeline.
func (s *Server) handleProcessUnprocessed(c echo.Context) error {
	limit := 50
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	return s.startJob(c, "process", func(ctx context.Context, pipeline *ingest.Pipeline) (any, error) {
		stored, err := pipeline.ProcessUnprocessed(ctx, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"events_stored": stored, "limit": limit}, nil
	})
}

// handleDedupe retires raw articles whose content fingerprint duplicates an
// earlier one, so reprocessing runs do not store the same story twice.
func (s *Server) handleDedupe(c echo.Context) error {
	retired, err := s.Store.DedupeRawArticles(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Dedupe failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"duplicates_retired": retired})
}

func (s *Server) handleValidationReport(c echo.Context) error {
	report, err := s.Store.GetValidationReport(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Validation report failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) startJob(c echo.Context, kind string, run func(context.Context, *ingest.Pipeline) (any, error)) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]any{
			"error":  "A job is already running",
			"job_id": job.ID,
		})
	}

	// Detach from the HTTP request lifecycle but keep an upper bound.
	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), 30*time.Minute,
	)

	jobID := uuid.New().String()[:8]
	job := &backgroundJob{
		ID:        jobID,
		Kind:      kind,
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	go func() {
		defer jobCancel()
		pipeline := ingest.NewPipeline(s.Store, s.Registry, s.AI)

		result, err := run(jobCtx, pipeline)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			log.Printf("[%s-job %s] failed: %v", kind, jobID, err)
			return
		}
		job.Status = "completed"
		job.Result = result
		log.Printf("[%s-job %s] completed", kind, jobID)
	}()

	return c.JSON(http.StatusAccepted, map[string]any{
		"message": fmt.Sprintf("%s job started", kind),
		"job_id":  jobID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", jobID),
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]any{
		"id":         job.ID,
		"kind":       job.Kind,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}

	return c.JSON(http.StatusOK, resp)
}

// Auth handlers

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// Protected handlers

func (s *Server) handleSaveEvent(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event ID"})
	}

	if err := s.AuthService.SaveEvent(ctx, userID, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save event"})
	}

	return c.NoContent(http.StatusOK)
}

func (s *Server) handleUnsaveEvent(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event ID"})
	}

	if err := s.AuthService.UnsaveEvent(ctx, userID, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to unsave event"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "unsaved"})
}

func (s *Server) handleGetSavedEvents(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	events, err := s.AuthService.GetSavedEvents(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch saved events"})
	}
	if events == nil {
		events = []models.FundingEvent{}
	}

	return c.JSON(http.StatusOK, events)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
