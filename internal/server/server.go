// Package server 提供供外部保活探测使用的 HTTP 服务。
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/iabetor/ytwatch/internal/logger"
)

// Server 只响应 GET / 的保活服务，与轮询逻辑没有共享状态。
type Server struct {
	router  *mux.Router
	httpSrv *http.Server
	message string
}

// New 创建保活服务。
func New(addr, message string) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		message: message,
	}
	s.setupRoutes()
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.home).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, s.message)
}

// Handler 返回路由，便于测试。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 先同步监听端口，再在后台 goroutine 中提供服务。
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.httpSrv.Addr, err)
	}
	logger.Infof("[server] 保活服务已启动: %s", ln.Addr())

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[server] 保活服务异常退出: %v", err)
		}
	}()
	return nil
}

// Shutdown 优雅关闭服务。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
