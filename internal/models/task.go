package models

import "time"

// Task は tasks テーブルの1行を表します。
// UserID が所有者で、読み書きは必ず所有者でフィルタされます。
type Task struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
