package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 是事件发布所需的最小接口，由 mq.Client 实现.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// -------------------------- 基于业务封装 events --------------------------

// PublishAIPIngested 发布 av.aip.ingested 事件。
// 在 SIP 摄取管线完成、AIP 与其文件记录写入数据库后触发。
func PublishAIPIngested(ctx context.Context, pub Publisher, payload AIPIngestedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAIPIngested, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicAIPIngested, msg)
}

// PublishAIPIngestFailed 发布 av.aip.ingest.failed 事件。
func PublishAIPIngestFailed(ctx context.Context, pub Publisher, payload AIPIngestFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAIPIngestFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicAIPIngestFailed, msg)
}

// PublishAIPVisibilityChanged 发布 av.aip.visibility.changed 事件。
func PublishAIPVisibilityChanged(ctx context.Context, pub Publisher, payload AIPVisibilityChangedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAIPVisibilityChanged, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicAIPVisibilityChanged, msg)
}

// PublishDIPExported 发布 av.dip.exported 事件。
func PublishDIPExported(ctx context.Context, pub Publisher, payload DIPExportedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicDIPExported, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicDIPExported, msg)
}

// ParseAIPIngested 将 Watermill 消息解析为强类型 Envelope。
func ParseAIPIngested(msg *message.Message) (Message[AIPIngestedPayload], error) {
	return ParseWatermillMessage[AIPIngestedPayload](msg)
}
