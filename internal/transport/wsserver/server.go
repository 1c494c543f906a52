// Package wsserver exposes an internal/rpccore.Dispatcher over a
// stateful WebSocket connection: one gin.Engine, one upgraded route, a
// read loop per connection. Subscription bookkeeping lives entirely
// inside rpccore's Subscribers table, keyed by the ConnectionID this
// package assigns — wsserver only owns the socket and the write-side
// fan-in goroutine that drains a connection's MethodSink onto the wire.
package wsserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thanhpk/randstr"
	"go.uber.org/zap"

	"github.com/LimeChain/rpcmux/internal/ratelimit"
	"github.com/LimeChain/rpcmux/internal/rpccore"
)

// Server runs a stateful JSON-RPC over WebSocket endpoint until Start
// returns, on SIGINT or a listener error.
type Server interface {
	Start() error
}

type server struct {
	router            *gin.Engine
	logger            *zap.Logger
	port              string
	module            *rpccore.RpcModule
	dispatcher        *rpccore.Dispatcher
	limiter           *ratelimit.Limiter
	upgrader          websocket.Upgrader
	subscriptionBufSz int
	connectionCount   int64

	nextConnID atomic.Uint64
}

// NewServer builds a WebSocket JSON-RPC server bound to port. module
// is the same RpcModule whose Methods back dispatcher — wsserver needs
// direct access to it so it can call RemoveConnection on teardown.
// subscriptionBufferSize sizes the per-connection outbound MethodSink;
// a full buffer drops frames rather than blocking a handler goroutine.
// limiter may be nil to disable rate limiting.
func NewServer(
	logger *zap.Logger,
	module *rpccore.RpcModule,
	dispatcher *rpccore.Dispatcher,
	limiter *ratelimit.Limiter,
	subscriptionBufferSize int,
	port string,
) Server {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	s := &server{
		router:            gin.Default(),
		logger:            logger,
		port:              port,
		module:            module,
		dispatcher:        dispatcher,
		limiter:           limiter,
		upgrader:          upgrader,
		subscriptionBufSz: subscriptionBufferSize,
	}

	s.router.GET("/", s.handleWebSocket)
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
		s.logger.Info("starting WebSocket server", zap.String("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	select {
	case <-sig:
		s.logger.Info("shutting down WebSocket server")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (s *server) handleWebSocket(c *gin.Context) {
	connID := rpccore.ConnectionID(s.nextConnID.Add(1))
	tag := fmt.Sprintf("0x%s", randstr.Hex(16))
	requestID := uuid.New().String()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	active := atomic.AddInt64(&s.connectionCount, 1)
	s.logger.Info("websocket connection established",
		zap.Uint64("connection_id", uint64(connID)),
		zap.String("tag", tag),
		zap.String("request_id", requestID),
		zap.Int64("active_connections", active))

	sink := rpccore.NewMethodSink(s.subscriptionBufSz)

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go s.runWriter(conn, sink, &writerWG)

	defer func() {
		sink.Close()
		s.module.RemoveConnection(connID)
		writerWG.Wait()
		conn.Close()

		remaining := atomic.AddInt64(&s.connectionCount, -1)
		s.logger.Info("websocket connection closed",
			zap.Uint64("connection_id", uint64(connID)),
			zap.Int64("active_connections", remaining))
		if s.limiter != nil {
			s.limiter.Forget(tag)
		}
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if s.limiter != nil {
			if err := s.limiter.Allow(tag); err != nil {
				_ = sink.Send(rateLimitedFrame(err))
				continue
			}
		}

		s.dispatcher.Dispatch(message, sink, connID)
	}
}

// runWriter drains sink onto conn until the sink is closed and
// drained empty, giving any notification queued just before teardown
// a chance to flush before the socket goes away.
func (s *server) runWriter(conn *websocket.Conn, sink *rpccore.MethodSink, wg *sync.WaitGroup) {
	defer wg.Done()
	drainTick := time.NewTicker(20 * time.Millisecond)
	defer drainTick.Stop()

	for {
		select {
		case frame := <-sink.Out():
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				s.logger.Debug("failed to write frame", zap.Error(err))
				return
			}
		case <-drainTick.C:
			if sink.Closed() && len(sink.Out()) == 0 {
				return
			}
		}
	}
}

func rateLimitedFrame(err error) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","error":{"code":-32000,"message":%q},"id":null}`, err.Error())
}
