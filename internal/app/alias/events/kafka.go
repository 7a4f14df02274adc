package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaCollector publishes events asynchronously; write errors are logged
// by the writer's completion callback.
type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Async:    true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Error("kafka write failed", "count", len(messages), "err", err)
				}
			},
		},
	}
}

func (k *KafkaCollector) Collect(event ResolveEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal resolve event failed", "err", err)
		return
	}
	// 以 alias 作为 key，同一别名的事件落在同一分区。
	_ = k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Alias),
		Value: data,
	})
}

func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}

// KafkaConsumer reads events from a topic and writes them to a Sink in batches.
type KafkaConsumer struct {
	batcher
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, topic, groupID string, sink Sink) *KafkaConsumer {
	return &KafkaConsumer{
		batcher: newBatcher(sink),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

func (k *KafkaConsumer) Run(ctx context.Context) {
	src := make(chan ResolveEvent, k.size)
	go k.read(ctx, src)
	k.drain(ctx, src)
}

// read 解码失败的消息直接跳过（带 GroupID 时 ReadMessage 会自动提交 offset）。
func (k *KafkaConsumer) read(ctx context.Context, out chan<- ResolveEvent) {
	defer close(out)
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("kafka read failed", "err", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		var ev ResolveEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			slog.Warn("skip undecodable resolve event", "offset", msg.Offset, "err", err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (k *KafkaConsumer) Close() {
	if err := k.reader.Close(); err != nil {
		slog.Error("kafka reader close failed", "err", err)
	}
}
