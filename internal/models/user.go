// Package models はデータベースの行に対応する構造体を定義します。
package models

// User は users テーブルの1行を表します。
// Password カラムには bcrypt ハッシュのみを保存し、平文は決して書き込みません。
type User struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password"`
}
