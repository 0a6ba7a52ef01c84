package queue_test

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/arqdiario/arqvault/pkg/queue"
)

// capturePublisher 记录发布的消息，实现 queue.Publisher.
type capturePublisher struct {
	topic string
	msgs  []*message.Message
}

func (p *capturePublisher) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)

	return nil
}

// TestPublishAIPIngested 发布到约定主题，消息可解析回原始载荷.
func TestPublishAIPIngested(t *testing.T) {
	pub := &capturePublisher{}

	payload := queue.AIPIngestedPayload{
		AIP: queue.AIPRef{
			ID:       "aip-1",
			Title:    "Viagem",
			Producer: "ana@example.com",
			IsPublic: true,
		},
		ProcessedFiles: 3,
		SkippedFiles:   1,
		SIPName:        "viagem.zip",
	}

	err := queue.PublishAIPIngested(context.Background(), pub, payload, queue.WithProducer("arqvault"))
	if err != nil {
		t.Fatalf("PublishAIPIngested: %v", err)
	}

	if pub.topic != queue.TopicAIPIngested {
		t.Errorf("topic = %q, want %q", pub.topic, queue.TopicAIPIngested)
	}

	if len(pub.msgs) != 1 {
		t.Fatalf("len(msgs) = %d", len(pub.msgs))
	}

	if pub.msgs[0].UUID == "" {
		t.Error("message UUID not set")
	}

	parsed, err := queue.ParseAIPIngested(pub.msgs[0])
	if err != nil {
		t.Fatalf("ParseAIPIngested: %v", err)
	}

	if parsed.Header.Topic != queue.TopicAIPIngested || parsed.Header.Producer != "arqvault" {
		t.Errorf("header = %+v", parsed.Header)
	}

	if parsed.Header.OccurredAt.IsZero() {
		t.Error("OccurredAt not set")
	}

	if parsed.Payload != payload {
		t.Errorf("payload = %+v, want %+v", parsed.Payload, payload)
	}
}

// TestEventHeaderOptions 选项函数写入 trace 与 producer.
func TestEventHeaderOptions(t *testing.T) {
	h := queue.NewEventHeader(queue.TopicDIPExported,
		queue.WithTraceID("trace-42"), queue.WithProducer("worker"))

	if h.Topic != queue.TopicDIPExported || h.TraceID != "trace-42" || h.Producer != "worker" {
		t.Errorf("header = %+v", h)
	}
}

// TestParseWatermillMessageBadBody 非法消息体解析失败.
func TestParseWatermillMessageBadBody(t *testing.T) {
	msg := message.NewMessage("id", []byte("not json"))

	if _, err := queue.ParseWatermillMessage[queue.AIPIngestedPayload](msg); err == nil {
		t.Error("expected error for malformed body")
	}
}
