// Package server HTTP API управления прогоном: прогресс, пауза и скорость.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"talentAgent/internal/database"
	"talentAgent/internal/runner"
)

type ProgressSource interface {
	Snapshot() runner.Snapshot
}

type PauseControl interface {
	Paused() bool
	Pause() error
	Resume() error
}

type SpeedControl interface {
	Speed() float64
	WriteSpeed(v float64) (float64, error)
}

// History история прогонов; nil, если БД не настроена.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]database.Run, error)
	FailedItems(ctx context.Context, runID string) ([]database.ItemResult, error)
}

type Server struct {
	addr     string
	log      *zap.Logger
	progress ProgressSource
	pause    PauseControl
	speed    SpeedControl
	history  History
}

func New(addr string, log *zap.Logger, progress ProgressSource, pause PauseControl, speed SpeedControl, history History) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		addr:     addr,
		log:      log,
		progress: progress,
		pause:    pause,
		speed:    speed,
		history:  history,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Простейший лог-мидлвар
	r.Use(func(c *gin.Context) {
		c.Next()
		s.log.Debug("HTTP",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/progress", s.getProgress)
	api.POST("/pause", s.postPause)
	api.POST("/resume", s.postResume)
	api.GET("/speed", s.getSpeed)
	api.PUT("/speed", s.putSpeed)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id/failed", s.failedItems)
	return r
}

func (s *Server) getProgress(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"progress": s.progress.Snapshot(),
		"paused":   s.pause.Paused(),
		"speed":    s.speed.Speed(),
	})
}

func (s *Server) postPause(c *gin.Context) {
	if err := s.pause.Pause(); err != nil {
		s.log.Error("Не удалось поставить паузу", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("Пауза включена через API")
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) postResume(c *gin.Context) {
	if err := s.pause.Resume(); err != nil {
		s.log.Error("Не удалось снять паузу", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("Пауза снята через API")
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (s *Server) getSpeed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"speed": s.speed.Speed()})
}

func (s *Server) putSpeed(c *gin.Context) {
	var req struct {
		Speed float64 `json:"speed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	applied, err := s.speed.WriteSpeed(req.Speed)
	if err != nil {
		s.log.Error("Не удалось записать скорость", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("Скорость изменена через API", zap.Float64("speed", applied))
	c.JSON(http.StatusOK, gin.H{"speed": applied})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	runs, err := s.history.ListRuns(c.Request.Context(), 50)
	if err != nil {
		s.log.Error("db list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) failedItems(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	items, err := s.history.FailedItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.log.Error("db failed items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// Run обслуживает запросы, пока не отменён ctx.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер управления запущен", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
