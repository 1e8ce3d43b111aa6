package main

import (
	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/contract"
	"github.com/blues/ifs/internal/database"
	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/mirror"
	"github.com/blues/ifs/internal/outbox"
	"github.com/blues/ifs/internal/queue"
	"github.com/blues/ifs/internal/router"
	"github.com/blues/ifs/internal/scheduler"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Log)

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化链客户端与合约网关
	client, err := ledger.Dial(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize ledger client: %v", err)
	}
	gateway, err := contract.NewGateway(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize contract gateway: %v", err)
	}

	// 镜像任务链路: 运行器 -> 执行池 -> 出站事件分发器
	deps := mirror.Deps{DB: db, Submitter: client, Gateway: gateway}
	runner := mirror.NewRunner(db, client, cfg.Task)
	pool, err := queue.NewPool(runner, cfg.Task)
	if err != nil {
		logger.Fatal("Failed to initialize task pool: %v", err)
	}
	defer pool.Release()
	dispatcher := outbox.NewDispatcher(db, pool, deps)

	// 启动定时任务
	manager, err := scheduler.NewManager(db, cfg, dispatcher, deps)
	if err != nil {
		logger.Fatal("Failed to initialize scheduler: %v", err)
	}
	manager.Start()
	defer manager.Stop()

	// 启动服务器
	r := router.Setup(db, cfg)
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
