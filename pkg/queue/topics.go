// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：av.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：aip(归档信息包)、dip(分发信息包)
// 动作/状态：ingested(摄取完成)、ingest.failed(摄取失败)、
// visibility.changed(可见性变更)、exported(导出完成)

const (
	// 摄取领域.
	TopicAIPIngested     = "av.aip.ingested"      // SIP 摄取完成，AIP 已建立
	TopicAIPIngestFailed = "av.aip.ingest.failed" // 摄取失败，AIP 以 failed 状态保留

	// 可见性领域.
	TopicAIPVisibilityChanged = "av.aip.visibility.changed" // 公开/私有状态变更

	// 分发领域.
	TopicDIPExported = "av.dip.exported" // DIP 打包下载完成
)

// 主题分组，用于批量订阅.
var (
	// AIP 生命周期相关主题集合.
	AIPTopics = []string{
		TopicAIPIngested, TopicAIPIngestFailed, TopicAIPVisibilityChanged,
	}

	// DIP 相关主题集合.
	DIPTopics = []string{
		TopicDIPExported,
	}
)
