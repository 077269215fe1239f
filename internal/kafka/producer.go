package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/studyhub/backend-go/internal/logger"
)

// Producer Kafka生产者，用于问答轮次审计
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// TurnEvent 一轮问答的审计事件
type TurnEvent struct {
	ChatID    uint      `json:"chat_id"`
	UserID    uint      `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources,omitempty"`
	Degraded  bool      `json:"degraded"`
	Timestamp time.Time `json:"timestamp"`
}

var globalProducer *Producer

// InitProducer 初始化Kafka生产者
func InitProducer(brokers []string, topic string) error {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	globalProducer = &Producer{
		producer: producer,
		topic:    topic,
	}

	logger.Info("Kafka生产者初始化成功", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return nil
}

// GetProducer 获取全局生产者实例
func GetProducer() *Producer {
	return globalProducer
}

// SendTurnEvent 发送问答轮次审计事件。审计失败只告警，不影响主流程。
func (p *Producer) SendTurnEvent(event *TurnEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("Kafka生产者未初始化")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d-%d", event.UserID, event.ChatID)),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		logger.Error("发送Kafka消息失败", zap.Error(err))
		return fmt.Errorf("发送消息失败: %w", err)
	}

	logger.Debug("Kafka消息发送成功",
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
		zap.Uint("chat_id", event.ChatID))

	return nil
}

// Close 关闭生产者
func Close() error {
	if globalProducer == nil || globalProducer.producer == nil {
		return nil
	}
	return globalProducer.producer.Close()
}
