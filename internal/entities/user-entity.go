// Файл: internal/entities/user-entity.go
package entities

// User — участник, идентифицируется внешним Telegram ID.
type User struct {
	ID       int64   `json:"id" db:"id"`
	Username *string `json:"username,omitempty" db:"username"`
	FullName *string `json:"full_name,omitempty" db:"full_name"`
	IsAdmin  bool    `json:"is_admin" db:"is_admin"`
	IsMember bool    `json:"is_member" db:"is_member"`
}
