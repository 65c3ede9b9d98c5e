package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/uno-arena/internal/config"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/hub"
	"github.com/palemoky/uno-arena/internal/ledger"
	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/metrics"
	"github.com/palemoky/uno-arena/internal/server"
	"github.com/palemoky/uno-arena/internal/server/session"
	"github.com/palemoky/uno-arena/internal/server/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	envPath := flag.String("env", ".env", "环境变量文件路径")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Printf("加载 %s 失败，忽略: %v", *envPath, err)
	}

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			log.Fatalf("环境变量不合法: %v", err)
		}
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	if err := run(cfg); err != nil {
		logger.L().WithError(err).Fatal("服务器异常退出")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Redis：房间快照、结算、排行榜
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	store := storage.NewRedisStore(rdb)
	if err := store.Ping(ctx); err != nil {
		return err
	}
	logger.L().Infof("🗄️ Redis 已连接: %s", cfg.Redis.Addr)
	leaderboard := storage.NewLeaderboard(rdb)

	// Postgres 归档是可选的
	var archive *storage.Archive
	if cfg.Postgres.DSN != "" {
		a, err := storage.OpenArchive(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer a.Close()
		archive = a
		if err := archive.Migrate(ctx); err != nil {
			return err
		}
		logger.L().Info("🗃️ 结算归档已启用")
	}

	var ledgerSvc ledger.Service
	switch cfg.Ledger.Mode {
	case config.LedgerModeHTTP:
		ledgerSvc = ledger.NewHTTPClient(cfg.Ledger.URL, cfg.Ledger.RequestTimeoutDuration())
	default:
		logger.L().Warn("⚠️ 使用内存账本，只适合本地开发")
		ledgerSvc = ledger.NewMemory()
	}

	coord := settlement.NewCoordinator(settlement.Config{
		Deadline:    cfg.Settlement.DeadlineDuration(),
		FeeBps:      cfg.Settlement.FeeBps(),
		CallTimeout: cfg.Ledger.RequestTimeoutDuration(),
	}, ledgerSvc, store)
	coord.SetMetrics(m)
	defer coord.Close()

	h := hub.New(hub.WithFeeBps(coord.FeeBps()), hub.WithMetrics(m))
	coord.AddListener(h)
	coord.AddListener(leaderboard)
	if archive != nil {
		coord.AddListener(archive)
	}

	rm := room.NewRoomManager(room.Config{
		TurnTimeout:  cfg.Game.TurnTimeoutDuration(),
		RoomTimeout:  cfg.Game.RoomTimeoutDuration(),
		CleanupDelay: cfg.Game.RoomCleanupDelayDuration(),
	}, room.Deps{
		Store:    store,
		Notifier: h,
		Settler:  coord,
		Metrics:  m,
	})
	defer rm.Close()
	coord.AttachRooms(rm)

	restored, err := rm.Recover(ctx)
	if err != nil {
		logger.L().WithError(err).Error("恢复房间失败")
	} else if restored > 0 {
		logger.L().Infof("♻️ 已恢复 %d 个房间", restored)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.L().Warn("⚠️ 未配置 auth.jwt_secret，使用随机密钥，重启后重连令牌全部失效")
	}

	srv := server.NewServer(cfg, server.Deps{
		Rooms:       rm,
		Settlements: coord,
		Hub:         h,
		Tokens:      session.NewTokenIssuer(secret, cfg.Auth.TokenTTLDuration()),
		Leaderboard: leaderboard,
		Archive:     archive,
		Metrics:     m,
		Ping:        store.Ping,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		srv.MonitorStats(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info("正在关闭服务器...")
		srv.GracefulShutdown(context.Background(), cfg.Game.ShutdownTimeoutDuration())
		coord.Wait()
		return nil
	})

	logger.L().Info("🎮 UNO 服务器启动中...")
	if err := g.Wait(); err != nil {
		return err
	}
	logger.L().Info("👋 再见")
	return nil
}
