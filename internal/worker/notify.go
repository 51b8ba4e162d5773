package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ResumeParseNotifyMessage 是推送给候选人的解析结果，经 Redis 频道转发到 WebSocket。
// SkillTestID 非零时前端可直接进入新生成的个性化测评。
type ResumeParseNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	ResumeID      uint   `json:"resumeId"`
	SkillTestID   uint   `json:"skillTestId,omitempty"`
	CorrelationID string `json:"correlationId"`
	ErrorCode     int    `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// NotifyChannel 返回用户的通知频道名，API 的 WebSocket 连接订阅同一频道。
func NotifyChannel(userID uint) string {
	return fmt.Sprintf("hiring:notify:user:%d", userID)
}

// Publisher 向某个用户发送解析通知。
type Publisher interface {
	Publish(ctx context.Context, userID uint, msg ResumeParseNotifyMessage) error
}

// RedisPublisher 将通知发布到用户的 Redis 频道。
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher 创建 RedisPublisher。
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish 实现 Publisher。
func (p *RedisPublisher) Publish(ctx context.Context, userID uint, msg ResumeParseNotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal resume notification: %w", err)
	}
	channel := NotifyChannel(userID)
	// 用户不在线时没有订阅者，消息丢弃即可，结果可轮询。
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %q: %w", channel, err)
	}
	return nil
}
