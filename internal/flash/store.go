// Package flash はフラッシュ通知（次の1回の描画でのみ表示されるメッセージ）を提供します。
// メッセージはセッションごとのバケットに紐づけてRedisに保存され、読み出しと同時に削除されます。
package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const bucketKeyPrefix = "flash:"

// Kind はメッセージの種別を表します。
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message は1件のフラッシュ通知です。
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Store はフラッシュ通知を Redis に保存します。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// Add はバケットにメッセージを追記し、有効期限を更新します。
func (s *Store) Add(ctx context.Context, bucket string, msg Message) error {
	if bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	payload, err := json.Marshal(&msg)
	if err != nil {
		return err
	}

	key := bucketKey(bucket)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Take はバケットの全メッセージを取得し、同時に削除します。
// メッセージが無い場合は空のスライスを返します。
func (s *Store) Take(ctx context.Context, bucket string) ([]Message, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	key := bucketKey(bucket)
	pipe := s.rdb.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	values := items.Val()
	messages := make([]Message, 0, len(values))
	for _, v := range values {
		var msg Message
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func bucketKey(id string) string {
	return bucketKeyPrefix + id
}
