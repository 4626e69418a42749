// Package auth は認証・セッション管理機能を提供します。
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/todolist/internal/config"
	"github.com/yourusername/todolist/internal/flash"
	"github.com/yourusername/todolist/internal/models"
	"github.com/yourusername/todolist/internal/repository"
)

const (
	SessionCookieName    = "todo_session"
	sessionKeyUserID     = "auth_user_id"
	sessionKeyUserName   = "auth_user_name"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"
)

var (
	maxSessionLifetime = 12 * time.Hour
	idleTimeout        = 30 * time.Minute
)

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func SessionMaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

// ハンドラー間でログイン済みユーザーを共有するためのコンテキストキー。
const (
	ContextUserIDKey   = "auth.user_id"
	ContextUserNameKey = "auth.user_name"
)

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	cfg     *config.Config
	users   repository.UserRepository
	hasher  *Hasher
	flashes *flash.Store
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, users repository.UserRepository, hasher *Hasher, flashes *flash.Store) *Manager {
	return &Manager{
		cfg:     cfg,
		users:   users,
		hasher:  hasher,
		flashes: flashes,
	}
}

// ShowRegister は GET /users/register のハンドラーです。
func (m *Manager) ShowRegister(c *gin.Context) {
	token, err := m.ensureCSRFToken(c)
	if err != nil {
		m.renderRegisterError(c, "")
		return
	}
	c.HTML(http.StatusOK, "register.html", gin.H{
		"CSRFToken": token,
		"Flashes":   m.flashes.TakeFrom(c),
	})
}

// ShowLogin は GET /users/login のハンドラーです。
func (m *Manager) ShowLogin(c *gin.Context) {
	if _, err := m.ensureCSRFToken(c); err != nil {
		m.renderLoginError(c)
		return
	}
	m.renderLogin(c, http.StatusOK, nil)
}

// Register は POST /users/register のハンドラーです。
// バリデーションは途中で打ち切らず、全ての失敗を集めてフォームに再表示します。
func (m *Manager) Register(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	password2 := c.PostForm("password2")

	var validationErrors []string
	if utf8.RuneCountInString(password) < m.cfg.MinPasswordChars {
		validationErrors = append(validationErrors,
			fmt.Sprintf("パスワードは%d文字以上で入力してください", m.cfg.MinPasswordChars))
	}
	if password != password2 {
		validationErrors = append(validationErrors, "入力されたパスワードが一致しません")
	}

	if len(validationErrors) > 0 {
		m.renderRegister(c, http.StatusOK, validationErrors, name, email)
		return
	}

	// バリデーション通過後にハッシュ化。失敗は照合失敗ではなく致命的エラー扱い。
	passwordHash, err := m.hasher.Hash(password)
	if err != nil {
		log.Printf("[auth] failed to hash password: %v", err)
		m.renderRegisterError(c, "")
		return
	}

	ctx := c.Request.Context()
	_, err = m.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		m.renderRegister(c, http.StatusOK, []string{"このメールアドレスは既に登録されています"}, name, email)
		return
	case !errors.Is(err, repository.ErrUserNotFound):
		log.Printf("[auth] failed to check existing email: %v", err)
		m.renderRegisterError(c, email)
		return
	}

	_, err = m.users.CreateUser(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		// 同時登録の競合は一意制約違反として現れるため、事前チェックと同じ文言で返す
		if errors.Is(err, repository.ErrEmailTaken) {
			m.renderRegister(c, http.StatusOK, []string{"このメールアドレスは既に登録されています"}, name, email)
			return
		}
		log.Printf("[auth] failed to create user: %v", err)
		m.renderRegisterError(c, email)
		return
	}

	m.flashes.AddTo(c, flash.KindSuccess, "登録が完了しました。ログインしてください")
	c.Redirect(http.StatusFound, "/users/login")
}

// Login は POST /users/login のハンドラーです。
// ユーザー不在とパスワード不一致は同じ文言で返し、アカウントの存在を推測させません。
func (m *Manager) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	user, err := m.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[auth] failed to look up user at login: %v", err)
		}
		m.rejectLogin(c)
		return
	}

	if !m.hasher.Verify(password, user.PasswordHash) {
		m.rejectLogin(c)
		return
	}

	token, err := generateToken()
	if err != nil {
		log.Printf("[auth] failed to generate csrf token: %v", err)
		m.renderLoginError(c)
		return
	}

	session := sessions.Default(c)
	now := time.Now()
	session.Set(sessionKeyUserID, user.ID)
	session.Set(sessionKeyUserName, user.Name)
	session.Set(sessionKeyIssuedAt, now.Unix())
	session.Set(sessionKeyLastActive, now.Unix())
	session.Set(sessionKeyCSRF, token)
	// ログイン前のバケットを引き継がない
	flash.RotateBucket(c)

	if err := session.Save(); err != nil {
		log.Printf("[auth] failed to save session at login: %v", err)
		m.renderLoginError(c)
		return
	}

	c.Redirect(http.StatusFound, "/users/todolist")
}

// Logout は GET /users/logout のハンドラーです。
// セッション破棄の失敗はログに残し、リダイレクトは常に行います。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("[auth] failed to destroy session at logout: %v", err)
	}

	m.flashes.AddTo(c, flash.KindSuccess, "ログアウトしました")
	c.Redirect(http.StatusFound, "/users/login")
}

func (m *Manager) rejectLogin(c *gin.Context) {
	m.flashes.AddTo(c, flash.KindError, "メールアドレスまたはパスワードが正しくありません")
	c.Redirect(http.StatusFound, "/users/login")
}

func (m *Manager) renderRegister(c *gin.Context, status int, errs []string, name, email string) {
	session := sessions.Default(c)
	token, _ := session.Get(sessionKeyCSRF).(string)
	c.HTML(status, "register.html", gin.H{
		"CSRFToken": token,
		"Errors":    errs,
		"Name":      name,
		"Email":     email,
		"Flashes":   m.flashes.TakeFrom(c),
	})
}

func (m *Manager) renderLogin(c *gin.Context, status int, errs []string) {
	session := sessions.Default(c)
	token, _ := session.Get(sessionKeyCSRF).(string)
	c.HTML(status, "login.html", gin.H{
		"CSRFToken": token,
		"Errors":    errs,
		"Flashes":   m.flashes.TakeFrom(c),
	})
}

// renderLoginError は内部エラー時に詳細を出さない汎用メッセージでログインフォームを返します。
func (m *Manager) renderLoginError(c *gin.Context) {
	m.renderLogin(c, http.StatusInternalServerError,
		[]string{"サーバーエラーが発生しました。時間をおいて再度お試しください"})
}

// renderRegisterError は内部エラー時に詳細を出さない汎用メッセージで登録フォームを返します。
func (m *Manager) renderRegisterError(c *gin.Context, email string) {
	m.renderRegister(c, http.StatusInternalServerError,
		[]string{"サーバーエラーが発生しました。時間をおいて再度お試しください"}, "", email)
}

// ensureCSRFToken はセッションにCSRFトークンが無ければ発行して保存します。
func (m *Manager) ensureCSRFToken(c *gin.Context) (string, error) {
	session := sessions.Default(c)
	if token, ok := session.Get(sessionKeyCSRF).(string); ok && token != "" {
		return token, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	session.Set(sessionKeyCSRF, token)
	if err := session.Save(); err != nil {
		return "", err
	}
	return token, nil
}

// CSRFToken は現在のセッションのCSRFトークンを返します。フォーム描画用です。
func CSRFToken(c *gin.Context) string {
	session := sessions.Default(c)
	token, _ := session.Get(sessionKeyCSRF).(string)
	return token
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
