package scheduler

import (
	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/mirror"
	"github.com/blues/ifs/internal/outbox"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 定时任务管理器
type Manager struct {
	scheduler  gocron.Scheduler
	db         *gorm.DB
	config     *config.Config
	dispatcher *outbox.Dispatcher
	deps       mirror.Deps
}

// NewManager 创建任务管理器
func NewManager(db *gorm.DB, cfg *config.Config, dispatcher *outbox.Dispatcher, deps mirror.Deps) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler:  s,
		db:         db,
		config:     cfg,
		dispatcher: dispatcher,
		deps:       deps,
	}, nil
}

// Start 注册全部任务并启动调度器
func (m *Manager) Start() {
	m.register(NewOutboxDispatchJob(m.config, m.dispatcher))
	m.register(NewCampaignFinishJob(m.db, m.config))
	m.register(NewCampaignSyncJob(m.config, m.deps))
	m.register(NewNoncePurgeJob(m.db))

	m.scheduler.Start()
	logger.Info("Scheduler started")
}

// register 注册单个任务，同名任务不并发执行
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止调度器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Scheduler stopped")
}
