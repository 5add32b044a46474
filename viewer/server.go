package viewer

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"snakeclient/client"
)

// Tick 周期的可调范围（毫秒）
const (
	minTickIntervalMs = 50
	maxTickIntervalMs = 60_000
)

//go:embed web
var webFS embed.FS

// LoopControl 浏览器端与管理接口需要的循环能力
type LoopControl interface {
	client.Controls
	TickInterval() time.Duration
	SetTickInterval(time.Duration)
	Metrics() *client.LoopMetrics
}

type Options struct {
	Addr       string
	Loop       LoopControl
	Hub        *Hub
	InputRate  int
	InputBurst int
}

// Server 本地浏览器视图：页面、WebSocket 与管理/监控接口
type Server struct {
	srv        *http.Server
	loop       LoopControl
	hub        *Hub
	upgrader   websocket.Upgrader
	inputRate  rate.Limit
	inputBurst int
}

func NewServer(opts Options) *Server {
	if opts.Hub == nil {
		opts.Hub = NewHub()
	}
	if opts.InputRate <= 0 {
		opts.InputRate = 20
	}
	if opts.InputBurst <= 0 {
		opts.InputBurst = 10
	}
	s := &Server{
		loop:       opts.Loop,
		hub:        opts.Hub,
		inputRate:  rate.Limit(opts.InputRate),
		inputBurst: opts.InputBurst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 只在本机监听，允许所有来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.Handle("/", http.FileServer(http.FS(static)))
	mux.HandleFunc("/admin/config", s.HandleAdminConfig)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start 阻塞直到服务关闭
func (s *Server) Start() error {
	client.Log.Infof("viewer listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
