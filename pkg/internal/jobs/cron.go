// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arqdiario/arqvault/pkg/configs"
	ctxPkg "github.com/arqdiario/arqvault/pkg/context"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/storage"
	"github.com/arqdiario/arqvault/pkg/log"
	"github.com/arqdiario/arqvault/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每 30 分钟将停留在 processing 超过 ingest.stale_after_hours 的
//     AIP 标记为 failed.摄取在单个请求生命周期内完成，进程崩溃会把
//     包留在 processing 状态，该任务负责收尾.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于任务内访问
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return sched.AddCron(JobStaleProcessingReconcile, CronStaleProcessingReconcile, func(ctx context.Context) {
		runStaleProcessingReconcile(ctx, mgr)
	}, baseCtx)
}

// runStaleProcessingReconcile 将长时间停留在 processing 的 AIP 标记为 failed 并留痕.
func runStaleProcessingReconcile(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobStaleProcessingReconcile).Logger()

	dbc := mgr.GetDBClient()
	if dbc == nil || dbc.GetDB() == nil {
		l.Error().Msg("db not initialized")
		return
	}

	staleAfter := configs.GetConfig().Ingest.StaleAfter()
	cutoff := time.Now().Add(-staleAfter)

	dbx := dbc.GetDB().WithContext(ctx)

	var stale []model.AIP
	if err := dbx.Where("status = ? AND updated_at < ?", model.AIPStatusProcessing, cutoff).
		Find(&stale).Error; err != nil {
		l.Error().Err(err).Msg("query stale AIPs failed")
		return
	}

	for _, aip := range stale {
		err := dbx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.AIP{}).Where("id = ? AND status = ?", aip.ID, model.AIPStatusProcessing).
				Update("status", model.AIPStatusFailed).Error; err != nil {
				return err
			}

			return tx.Create(&model.ProcessingLog{
				AIPID:     aip.ID,
				Timestamp: time.Now().UTC(),
				Level:     model.LogLevelError,
				Message:   fmt.Sprintf("ingestion interrupted, stale in processing for over %s", staleAfter),
			}).Error
		})
		if err != nil {
			l.Error().Err(err).Str("aip_id", aip.ID).Msg("mark stale AIP failed")
			continue
		}

		l.Warn().Str("aip_id", aip.ID).Time("cutoff", cutoff).Msg("stale processing AIP marked failed")
	}

	if len(stale) > 0 {
		l.Info().Int("affected", len(stale)).Msg("stale processing reconcile done")
	}
}
