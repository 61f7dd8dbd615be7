package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/knightqmd/scheduler-app/internal/config"
	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/service"
)

// Server exposes the planning service over HTTP.
type Server struct {
	plans  service.PlanService
	logger *zap.Logger
	engine *gin.Engine
}

// New builds the router. gin's mode is left to the caller.
func New(plans service.PlanService, cfg config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{plans: plans, logger: logger.Named("http")}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/schedule", s.getSchedule)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)

	perMinute, burst := cfg.RatePerMinute, cfg.RateBurst
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}
	api.POST("/plan", newClientLimiter(perMinute, burst).middleware(s.logger), s.postPlan)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "未知路径"})
	})

	s.engine = r
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler returns the http.Handler for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getSchedule(c *gin.Context) {
	week, err := s.plans.Schedule(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "读取日程失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": toScheduleDTO(week)})
}

func (s *Server) listRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit 必须是正整数"})
			return
		}
		limit = n
	}
	runs, err := s.plans.History(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "读取历史失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": toRunDTOs(runs)})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.plans.Run(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "规划记录不存在"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "读取历史失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": toRunDTO(run)})
}

func (s *Server) postPlan(c *gin.Context) {
	var body planRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 JSON 请求体"})
		return
	}

	mode := domain.ParsePlanMode(strings.ToLower(strings.TrimSpace(body.Mode)))
	if mode == domain.PlanModeSmart && strings.TrimSpace(body.Request) == "" {
		// A long-term plan sent along is still stored before the request is refused.
		if strings.TrimSpace(body.LongTermPlan) != "" {
			if _, err := s.plans.Apply(c.Request.Context(), service.ApplyRequest{
				LongTermPlan: body.LongTermPlan,
				Mode:         domain.PlanModeSave,
			}); err != nil {
				s.writePlanError(c, err)
				return
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "request 字段不能为空"})
		return
	}

	res, err := s.plans.Apply(c.Request.Context(), service.ApplyRequest{
		Request:      body.Request,
		LongTermPlan: body.LongTermPlan,
		Mode:         mode,
	})
	if err != nil {
		s.writePlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"raw":      res.Raw,
		"schedule": toScheduleDTO(res.Schedule),
		"run_id":   res.RunID,
		"skipped":  res.Skipped,
	})
}

func (s *Server) writePlanError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	msg := "生成日程失败"
	switch {
	case errors.Is(err, service.ErrEmptyRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "request 字段不能为空"})
		return
	case errors.Is(err, service.ErrModelCallFailed):
		status, msg = http.StatusBadGateway, "调用模型失败"
	case errors.Is(err, service.ErrPlanRejected):
		status, msg = http.StatusUnprocessableEntity, "未能解析模型输出"
	case errors.Is(err, service.ErrStoreUnavailable):
		status, msg = http.StatusServiceUnavailable, "日程存储不可用"
	}

	resp := gin.H{
		"error": fmt.Sprintf("%s: %v", msg, err),
		"raw":   service.RawOutput(err),
	}
	var pe *service.PlanError
	if errors.As(err, &pe) && pe.Schedule != nil {
		resp["schedule"] = toScheduleDTO(pe.Schedule)
	} else if week, loadErr := s.plans.Schedule(c.Request.Context()); loadErr == nil {
		resp["schedule"] = toScheduleDTO(week)
	}
	c.JSON(status, resp)
}
