package gateway

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/soma-lab/relation-core/config"
	"github.com/soma-lab/relation-core/pkg/kafka"
)

// relationEvent 下游消费的统一消息体
type relationEvent struct {
	Kind      string    `json:"kind"`
	ActorID   int64     `json:"actor_id"`
	SubjectID int64     `json:"subject_id"`
	EmittedAt time.Time `json:"emitted_at"`
}

// KafkaNotificationGateway 推送请求入队：按 subject（接收者）分区
type KafkaNotificationGateway struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaNotificationGateway(producer *kafka.Producer, cfg config.KafkaConfig) *KafkaNotificationGateway {
	return &KafkaNotificationGateway{producer: producer, topic: cfg.NotificationTopic}
}

func (g *KafkaNotificationGateway) Enqueue(ctx context.Context, kind string, actorID, subjectID int64) error {
	return publish(g.producer, g.topic, subjectID, kind, actorID, subjectID)
}

// KafkaSearchSyncGateway 搜索索引与推广信号入队：按 actor 分区
type KafkaSearchSyncGateway struct {
	producer       *kafka.Producer
	searchTopic    string
	promotingTopic string
}

func NewKafkaSearchSyncGateway(producer *kafka.Producer, cfg config.KafkaConfig) *KafkaSearchSyncGateway {
	return &KafkaSearchSyncGateway{
		producer:       producer,
		searchTopic:    cfg.SearchSyncTopic,
		promotingTopic: cfg.PromotingTopic,
	}
}

func (g *KafkaSearchSyncGateway) EnqueueUserAction(ctx context.Context, actorID, subjectID int64, kind string) error {
	return publish(g.producer, g.searchTopic, actorID, kind, actorID, subjectID)
}

func (g *KafkaSearchSyncGateway) EnqueuePromotingAction(ctx context.Context, kind string, actorID, subjectID int64) error {
	return publish(g.producer, g.promotingTopic, actorID, kind, actorID, subjectID)
}

func publish(producer *kafka.Producer, topic string, partitionKey int64, kind string, actorID, subjectID int64) error {
	payload, err := json.Marshal(relationEvent{
		Kind:      kind,
		ActorID:   actorID,
		SubjectID: subjectID,
		EmittedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return producer.SendMessage(topic, []byte(strconv.FormatInt(partitionKey, 10)), payload)
}
