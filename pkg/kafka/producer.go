package kafka

import (
	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/soma-lab/relation-core/pkg/logger"
)

// Producer sarama 异步生产者的薄封装
type Producer struct {
	asyncProducer sarama.AsyncProducer
}

func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	asyncProducer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	p := &Producer{asyncProducer: asyncProducer}
	// 错误通道必须持续消费，否则生产者会阻塞
	go p.drainErrors()
	return p, nil
}

func (p *Producer) drainErrors() {
	for err := range p.asyncProducer.Errors() {
		logger.Error("kafka produce failed",
			zap.String("topic", err.Msg.Topic),
			zap.Error(err.Err))
	}
}

// SendMessage 发送消息（按 key 哈希分区，保证同一用户的事件有序）
func (p *Producer) SendMessage(topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	p.asyncProducer.Input() <- msg
	return nil
}

func (p *Producer) Close() error {
	return p.asyncProducer.Close()
}
