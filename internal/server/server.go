package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/palemoky/uno-arena/internal/config"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/hub"
	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/metrics"
	"github.com/palemoky/uno-arena/internal/server/api"
	"github.com/palemoky/uno-arena/internal/server/handler"
	"github.com/palemoky/uno-arena/internal/server/session"
	"github.com/palemoky/uno-arena/internal/server/storage"
	"github.com/palemoky/uno-arena/internal/types"
)

const apiTimeout = 15 * time.Second

// Deps 服务器依赖。Leaderboard/Archive/Metrics/Ping 可以为空
type Deps struct {
	Rooms       *room.RoomManager
	Settlements *settlement.Coordinator
	Hub         *hub.Hub
	Tokens      *session.TokenIssuer
	Leaderboard *storage.Leaderboard
	Archive     *storage.Archive
	Metrics     *metrics.Metrics
	Ping        func(ctx context.Context) error // 健康检查（Redis）
}

// Server WebSocket + REST 服务器
type Server struct {
	config         *config.Config
	roomManager    *room.RoomManager
	hub            *hub.Hub
	sessionManager *session.SessionManager
	metrics        *metrics.Metrics
	ping           func(ctx context.Context) error
	clients        map[string]*Client
	clientsMu      sync.RWMutex
	handler        *handler.Handler
	router         chi.Router
	upgrader       websocket.Upgrader

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	httpServer *http.Server
}

var _ types.ServerInterface = (*Server)(nil)

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		config:         cfg,
		roomManager:    deps.Rooms,
		hub:            deps.Hub,
		sessionManager: session.NewSessionManager(deps.Tokens),
		metrics:        deps.Metrics,
		ping:           deps.Ping,
		clients:        make(map[string]*Client),
		// 初始化安全组件
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(cfg.Security.IPWhitelist, cfg.Security.IPBlacklist),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
		// 消息都很小，压缩只会白白消耗 CPU
		EnableCompression: false,
	}

	var stats types.StatsService
	if deps.Leaderboard != nil {
		stats = deps.Leaderboard
	}
	var archive types.ArchiveService
	if deps.Archive != nil {
		archive = deps.Archive
	}

	// 初始化消息处理器
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		Rooms:       deps.Rooms,
		Settlements: deps.Settlements,
		Stats:       stats,
		Hub:         deps.Hub,
		Sessions:    s.sessionManager,
	})

	s.router = s.routes(api.New(api.Deps{
		Rooms:       deps.Rooms,
		Settlements: deps.Settlements,
		Tokens:      deps.Tokens,
		Stats:       stats,
		Archive:     archive,
	}))

	deps.Metrics.RegisterActiveMatches(deps.Rooms.ActiveMatchCount)

	logger.L().Infof("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)

	return s
}

// routes 注册路由
func (s *Server) routes(a *api.API) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	if s.config.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.ipFilter.Middleware)
		r.Use(s.rateLimiter.Middleware)
		r.Use(middleware.Timeout(apiTimeout))
		a.Routes(r)
	})
	return r
}

// Handler HTTP 入口，测试里直接挂到 httptest.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器，阻塞直到 Shutdown
func (s *Server) Start() error {
	addr := s.config.Addr()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.L().Infof("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
