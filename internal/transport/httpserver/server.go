// Package httpserver exposes an internal/rpccore.Dispatcher over a
// stateless HTTP POST endpoint: one gin.Engine, one route, a
// batch/single fork on the decoded body.
//
// HTTP connections never outlive a request, so subscriptions made
// over this transport would have nowhere to push notifications;
// callers that need subscribe/unsubscribe must use wsserver instead.
// A fresh MethodSink is opened per request purely so a handler can
// reply through the same interface rpccore expects everywhere else.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LimeChain/rpcmux/internal/ratelimit"
	"github.com/LimeChain/rpcmux/internal/rpccore"
)

// Server runs a stateless JSON-RPC over HTTP endpoint until Start
// returns, on SIGINT or a listener error.
type Server interface {
	Start() error
}

type server struct {
	router            *gin.Engine
	logger            *zap.Logger
	port              string
	dispatcher        *rpccore.Dispatcher
	limiter           *ratelimit.Limiter
	maxRequestBodyLen int64
}

// NewServer builds an HTTP JSON-RPC server bound to port, dispatching
// through dispatcher. maxRequestBodyLen caps the request body in
// bytes; a non-positive value disables the cap. limiter may be nil to
// disable rate limiting.
func NewServer(
	logger *zap.Logger,
	dispatcher *rpccore.Dispatcher,
	limiter *ratelimit.Limiter,
	maxRequestBodyLen int64,
	port string,
) Server {
	router := gin.Default()

	s := &server{
		router:            router,
		logger:            logger,
		port:              port,
		dispatcher:        dispatcher,
		limiter:           limiter,
		maxRequestBodyLen: maxRequestBodyLen,
	}

	router.Use(s.loggingMiddleware())
	router.POST("/", s.rateLimitMiddleware(), s.handleRPCRequest)

	return s
}

func (s *server) Start() error {
	srv := &http.Server{
		Handler:      s.router,
		Addr:         fmt.Sprintf(":%s", s.port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server", zap.String("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	select {
	case <-sig:
		s.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (s *server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		if err := s.limiter.Allow(c.ClientIP()); err != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func (s *server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.logger.Debug("request", zap.String("method", c.Request.Method), zap.String("url", c.Request.URL.String()))
		c.Next()
	}
}

// handleRPCRequest reads the body (capped, if configured), dispatches
// it as either a batch or a single request, and writes back whatever
// frame(s) the dispatcher produced. Connection id 0 is used for every
// call: plain HTTP requests have no persistent identity to key
// Subscribers on, and any subscribe call made here fails at the wire
// boundary only in the sense that its notifications have nowhere to
// go — rpccore itself has no opinion on that, since the cap on
// request size is purely a transport concern.
func (s *server) handleRPCRequest(c *gin.Context) {
	body, err := s.readBody(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	if len(body) > 0 && body[0] == '[' {
		s.handleBatch(c, body)
		return
	}
	s.handleSingle(c, body)
}

func (s *server) readBody(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	if s.maxRequestBodyLen <= 0 {
		return io.ReadAll(body)
	}
	limited := io.LimitReader(body, s.maxRequestBodyLen+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxRequestBodyLen {
		return nil, fmt.Errorf("request body exceeds %d bytes", s.maxRequestBodyLen)
	}
	return data, nil
}

func (s *server) handleSingle(c *gin.Context, body []byte) {
	sink := rpccore.NewMethodSink(1)
	s.dispatcher.Dispatch(body, sink, 0)
	sink.Close()

	select {
	case frame := <-sink.Out():
		c.Data(http.StatusOK, "application/json", []byte(frame))
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *server) handleBatch(c *gin.Context, body []byte) {
	rawItems, err := splitBatch(body)
	if err != nil || len(rawItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty or invalid batch request"})
		return
	}

	frames := make([]string, 0, len(rawItems))
	for _, item := range rawItems {
		sink := rpccore.NewMethodSink(1)
		s.dispatcher.Dispatch(item, sink, 0)
		sink.Close()
		select {
		case frame := <-sink.Out():
			frames = append(frames, frame)
		default:
			// notification within the batch: no reply
		}
	}

	c.Data(http.StatusOK, "application/json", batchFrame(frames))
}
