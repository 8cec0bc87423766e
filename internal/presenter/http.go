package presenter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jkaberg/battery-state/internal/card"
	"github.com/jkaberg/battery-state/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	cardEndpoint = "/api/card"
	sizeEndpoint = "/api/card/size"
	tapEndpoint  = "/api/card/tap/:entity_id"
)

// HTTPPresenter serves the latest frame as JSON and accepts taps.
type HTTPPresenter struct {
	router *gin.Engine
	server *http.Server
	onTap  TapFunc
	logger *logrus.Logger

	mu    sync.RWMutex
	frame *Frame
}

func NewHTTPPresenter(addr string, onTap TapFunc, logger *logrus.Logger) *HTTPPresenter {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	p := &HTTPPresenter{
		router: router,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		onTap:  onTap,
		logger: logger,
	}
	router.GET(cardEndpoint, p.cardHandler)
	router.GET(sizeEndpoint, p.sizeHandler)
	router.POST(tapEndpoint, p.tapHandler)
	return p
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.WithFields(logrus.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.Request.URL.Path,
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("HTTP request")
	}
}

// Handler exposes the router, mainly for tests.
func (p *HTTPPresenter) Handler() http.Handler { return p.router }

func (p *HTTPPresenter) Present(f Frame) error {
	p.mu.Lock()
	p.frame = &f
	p.mu.Unlock()
	return nil
}

func (p *HTTPPresenter) IsConnected() bool { return true }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (p *HTTPPresenter) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		p.logger.WithField("addr", p.server.Addr).Info("HTTP view listening")
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := p.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}

func (p *HTTPPresenter) current() (Frame, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.frame == nil {
		return Frame{}, false
	}
	return *p.frame, true
}

func (p *HTTPPresenter) cardHandler(ctx *gin.Context) {
	f, ok := p.current()
	if !ok {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "card not rendered yet"})
		return
	}
	ctx.JSON(http.StatusOK, newViewPayload(f))
}

func (p *HTTPPresenter) sizeHandler(ctx *gin.Context) {
	f, ok := p.current()
	if !ok {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "card not rendered yet"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"size": f.Size})
}

func (p *HTTPPresenter) tapHandler(ctx *gin.Context) {
	entityID := ctx.Param("entity_id")
	reply := make(chan error, 1)
	p.onTap(Tap{EntityID: entityID, Reply: reply})

	timer := time.NewTimer(config.TapTimeout)
	defer timer.Stop()

	select {
	case err := <-reply:
		switch {
		case err == nil:
			ctx.Status(http.StatusNoContent)
		case errors.Is(err, card.ErrUnknownEntity):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
	case <-timer.C:
		ctx.JSON(http.StatusGatewayTimeout, gin.H{"error": "tap timed out"})
	case <-ctx.Request.Context().Done():
		ctx.Status(http.StatusRequestTimeout)
	}
}
