package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/ifs/internal/logger"
	"github.com/blues/ifs/internal/mirror"
	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

const defaultBatchSize = 100

// Enqueuer 任务入队接口，*queue.Pool 满足该接口
type Enqueuer interface {
	Enqueue(ctx context.Context, task mirror.Task) error
}

// Dispatcher 出站事件分发器
// 轮询 pending 事件，展开为镜像任务入队后标记 dispatched。
// 标记在入队之后，进程崩溃最多导致重复入队，由任务幂等检查吸收。
type Dispatcher struct {
	db        *gorm.DB
	pool      Enqueuer
	deps      mirror.Deps
	batchSize int
}

// NewDispatcher 创建分发器
func NewDispatcher(db *gorm.DB, pool Enqueuer, deps mirror.Deps) *Dispatcher {
	return &Dispatcher{db: db, pool: pool, deps: deps, batchSize: defaultBatchSize}
}

// Dispatch 分发一批待处理事件
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	var events []model.OutboxEvent
	if err := d.db.Where("status = ?", model.OutboxStatusPending).
		Order("id asc").Limit(d.batchSize).Find(&events).Error; err != nil {
		return fmt.Errorf("failed to poll outbox: %w", err)
	}

	for _, event := range events {
		tasks, err := d.expand(event)
		if err != nil {
			logger.Error("Failed to expand outbox event %d (%s): %v", event.Id, event.EventType, err)
			continue
		}
		enqueued := true
		for _, task := range tasks {
			if err := d.pool.Enqueue(ctx, task); err != nil {
				logger.Error("Failed to enqueue %s for %s: %v", task.Name(), task.EntityId(), err)
				enqueued = false
				break
			}
		}
		if !enqueued {
			continue
		}
		if err := d.markDispatched(event.Id); err != nil {
			logger.Error("Failed to mark outbox event %d dispatched: %v", event.Id, err)
		}
	}
	return nil
}

// expand 把一个事件展开为零个或多个镜像任务
func (d *Dispatcher) expand(event model.OutboxEvent) ([]mirror.Task, error) {
	switch event.EventType {
	case model.EventCompanyCreated:
		return []mirror.Task{mirror.NewIssuerRegisterTask(d.deps, event.EntityId)}, nil

	case model.EventCampaignApproved:
		return []mirror.Task{mirror.NewCampaignDeployTask(d.deps, event.EntityId)}, nil

	case model.EventInvestmentConfirmed:
		return []mirror.Task{mirror.NewInvestmentRecordTask(d.deps, event.EntityId)}, nil

	case model.EventInvestmentRecorded:
		// 活动已达成功阈值时才铸造凭证，未达标的由 campaign.successful 事件统一触发
		var investment model.Investment
		if err := d.db.Preload("Campaign").First(&investment, "id = ?", event.EntityId).Error; err != nil {
			return nil, err
		}
		if investment.Campaign == nil || !investment.Campaign.CertificateEligible() {
			return nil, nil
		}
		return []mirror.Task{mirror.NewNftMintTask(d.deps, event.EntityId)}, nil

	case model.EventCampaignSuccessful:
		tasks, err := d.escrowTasks(event.EntityId, true)
		if err != nil {
			return nil, err
		}
		// 成功时为每笔已上链的投资铸造凭证
		var investments []model.Investment
		if err := d.db.Where("campaign_id = ? AND status = ? AND nft_minted = ?",
			event.EntityId, model.InvestmentStatusConfirmed, false).Find(&investments).Error; err != nil {
			return nil, err
		}
		for _, investment := range investments {
			tasks = append(tasks, mirror.NewNftMintTask(d.deps, investment.Id))
		}
		return tasks, nil

	case model.EventCampaignFailed, model.EventCampaignCancelled:
		return d.escrowTasks(event.EntityId, false)

	default:
		return nil, fmt.Errorf("unknown event type %s", event.EventType)
	}
}

// escrowTasks 根据活动落点选择释放或退款任务
func (d *Dispatcher) escrowTasks(campaignId string, release bool) ([]mirror.Task, error) {
	var escrow model.FundEscrow
	if err := d.db.First(&escrow, "campaign_id = ?", campaignId).Error; err != nil {
		return nil, fmt.Errorf("escrow for campaign %s: %w", campaignId, err)
	}
	if release {
		return []mirror.Task{mirror.NewEscrowReleaseTask(d.deps, escrow.Id)}, nil
	}
	return []mirror.Task{mirror.NewEscrowRefundTask(d.deps, escrow.Id)}, nil
}

func (d *Dispatcher) markDispatched(id int64) error {
	now := time.Now()
	return d.db.Model(&model.OutboxEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.OutboxStatusDispatched,
		"dispatched_at": now,
	}).Error
}
