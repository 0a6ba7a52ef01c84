package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobStaleProcessingReconcile = "aip.stale_processing.reconcile"
)

// Cron 表达式常量.
const (
	// 每 30 分钟检查一次中断的摄取
	CronStaleProcessingReconcile = "*/30 * * * *"
)
