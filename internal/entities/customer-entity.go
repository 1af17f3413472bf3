// Файл: internal/entities/customer-entity.go
package entities

// Customer — запись справочника заказчиков.
type Customer struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"is_active" db:"is_active"`
}
