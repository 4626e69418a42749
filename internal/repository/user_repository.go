package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yourusername/todolist/internal/models"
)

// PostgreSQLのエラーコード。
const pgUniqueViolationCode = "23505"

// リポジトリのセンチネルエラー。
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserRepository はユーザー行の読み書きを定義します。
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository はPostgreSQL用のユーザーリポジトリを作成します。
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser は新しいユーザーを作成し、採番されたIDを返します。
// メールアドレスの一意制約違反は ErrEmailTaken に変換されます。
// 事前の存在チェックと同時登録が競合した場合もここで捕捉されます。
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := `INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id`
	var userID int64

	err := r.db.QueryRowxContext(ctx, query, user.Name, user.Email, user.PasswordHash).Scan(&userID)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return 0, ErrEmailTaken
		}
		log.Printf("[repo] failed to create user %q: %v", user.Email, err)
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	return userID, nil
}

// GetUserByEmail はメールアドレスでユーザーを検索します。
// 見つからない場合は ErrUserNotFound を返します。
func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, name, email, password FROM users WHERE email = $1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Printf("[repo] failed to look up user %q: %v", email, err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}
