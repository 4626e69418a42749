package flash

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// セッション内でバケットIDを保持するキー。
const sessionKeyBucket = "flash_bucket"

// BucketID はセッションに紐づくバケットIDを返します。
// 未割り当てのセッションには新しいIDを発行して保存します。
func BucketID(c *gin.Context) (string, error) {
	session := sessions.Default(c)
	if id, ok := session.Get(sessionKeyBucket).(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	session.Set(sessionKeyBucket, id)
	if err := session.Save(); err != nil {
		return "", err
	}
	return id, nil
}

// RotateBucket は新しいバケットIDを発行してセッションに書き込みます。
// 保存は呼び出し側の session.Save に任せます。
func RotateBucket(c *gin.Context) string {
	id := uuid.NewString()
	sessions.Default(c).Set(sessionKeyBucket, id)
	return id
}

// AddTo は現在のセッションのバケットにメッセージを追加します。
// 通知はベストエフォートで、失敗してもリクエスト処理は継続します。
func (s *Store) AddTo(c *gin.Context, kind Kind, text string) {
	bucket, err := BucketID(c)
	if err != nil {
		log.Printf("[flash] failed to resolve bucket: %v", err)
		return
	}
	if err := s.Add(c.Request.Context(), bucket, Message{Kind: kind, Text: text}); err != nil {
		log.Printf("[flash] failed to add message: %v", err)
	}
}

// TakeFrom は現在のセッションのバケットからメッセージを取り出して削除します。
// 取得に失敗した場合はログに残して空を返します（描画は継続する）。
func (s *Store) TakeFrom(c *gin.Context) []Message {
	bucket, err := BucketID(c)
	if err != nil {
		log.Printf("[flash] failed to resolve bucket: %v", err)
		return nil
	}
	messages, err := s.Take(c.Request.Context(), bucket)
	if err != nil {
		log.Printf("[flash] failed to take messages: %v", err)
		return nil
	}
	return messages
}
