// Файл: internal/entities/thread-binding-entity.go
package entities

// ThreadBinding — привязка вида работ к теме (thread) общего чата.
// Не более одной привязки на вид работ.
type ThreadBinding struct {
	WorkType string `json:"work_type" db:"work_type"`
	ThreadID int64  `json:"thread_id" db:"thread_id"`
}
