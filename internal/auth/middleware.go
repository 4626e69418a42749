package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/todolist/internal/flash"
)

// RequireLogin はログイン済みセッションを要求するミドルウェアを返します。
// 有効なセッションを持たないリクエストはログインページへリダイレクトされます。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionKeyUserID).(int64)
		if !ok || userID == 0 {
			c.Redirect(http.StatusFound, "/users/login")
			c.Abort()
			return
		}

		now := time.Now()
		issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
		lastActive := readUnix(session.Get(sessionKeyLastActive))

		if issuedAt.IsZero() || now.Sub(issuedAt) > maxSessionLifetime ||
			lastActive.IsZero() || now.Sub(lastActive) > idleTimeout {
			session.Clear()
			_ = session.Save()
			m.flashes.AddTo(c, flash.KindError, "セッションの有効期限が切れました。再度ログインしてください")
			c.Redirect(http.StatusFound, "/users/login")
			c.Abort()
			return
		}

		session.Set(sessionKeyLastActive, now.Unix())
		_ = session.Save()

		name, _ := session.Get(sessionKeyUserName).(string)
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUserNameKey, name)
		c.Next()
	}
}

// RequireAnonymous はログイン済みの呼び出しをタスク一覧へ送り返すミドルウェアを返します。
// 登録・ログインページに適用します。
func (m *Manager) RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(sessionKeyUserID).(int64); ok && userID != 0 {
			c.Redirect(http.StatusFound, "/users/todolist")
			c.Abort()
			return
		}
		c.Next()
	}
}

// VerifyCSRF はフォームの _csrf フィールドを検証するミドルウェアです。
// 状態を変更しないメソッドは素通しします。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		received := c.PostForm("_csrf")
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Next()
	}
}

// CurrentUserID は RequireLogin が設定したユーザーIDを取り出します。
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// CurrentUserName は RequireLogin が設定したユーザー名を取り出します。
func CurrentUserName(c *gin.Context) string {
	v, ok := c.Get(ContextUserNameKey)
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
