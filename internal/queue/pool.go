package queue

import (
	"context"

	"github.com/blues/ifs/internal/config"
	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/mirror"
	"github.com/panjf2000/ants/v2"
)

// Pool 镜像任务执行池
// 有界并发: 任务多时排队而不是无限开协程，nonce串行化在ledger层保证。
type Pool struct {
	pool   *ants.Pool
	runner *mirror.Runner
}

// NewPool 创建任务执行池
func NewPool(runner *mirror.Runner, cfg config.TaskConfig) (*Pool, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	logger.Info("Task pool started with %d workers", workers)
	return &Pool{pool: pool, runner: runner}, nil
}

// Enqueue 提交任务，由运行器负责重试与失败落表
func (p *Pool) Enqueue(ctx context.Context, task mirror.Task) error {
	return p.pool.Submit(func() {
		p.runner.Execute(ctx, task)
	})
}

// Running 当前执行中的任务数
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release 关闭执行池
func (p *Pool) Release() {
	p.pool.Release()
}
