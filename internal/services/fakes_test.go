package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"taskbot/internal/entities"
	apperrors "taskbot/pkg/errors"
	"taskbot/pkg/telegram"
)

// memClaimRepo — леджер в памяти с той же семантикой, что и у Postgres-версии:
// проверка и вставка атомарны под общим мьютексом.
type memClaimRepo struct {
	mu sync.Mutex

	totals map[int64]decimal.Decimal // total_volume активных заданий
	claims map[int64]entities.Claim
	nextID int64
}

func newMemClaimRepo() *memClaimRepo {
	return &memClaimRepo{
		totals: make(map[int64]decimal.Decimal),
		claims: make(map[int64]entities.Claim),
	}
}

func (r *memClaimRepo) setTotal(assignmentID int64, total decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals[assignmentID] = total
}

func (r *memClaimRepo) takenLocked(assignmentID int64) decimal.Decimal {
	taken := decimal.Zero
	for _, c := range r.claims {
		if c.AssignmentID == assignmentID && !c.Done {
			taken = taken.Add(c.Volume)
		}
	}
	return taken
}

func (r *memClaimRepo) TakeClaim(_ context.Context, assignmentID int64, executorID int64, volume decimal.Decimal) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := r.totals[assignmentID] // нет задания — нулевой total
	if err := entities.CheckClaim(assignmentID, total, r.takenLocked(assignmentID), volume); err != nil {
		return 0, err
	}

	r.nextID++
	r.claims[r.nextID] = entities.Claim{
		ID:           r.nextID,
		AssignmentID: assignmentID,
		ExecutorID:   executorID,
		Volume:       volume,
	}
	return r.nextID, nil
}

func (r *memClaimRepo) FreeVolume(_ context.Context, assignmentID int64) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return entities.FreeVolume(r.totals[assignmentID], r.takenLocked(assignmentID)), nil
}

func (r *memClaimRepo) MyOpenClaims(_ context.Context, executorID int64) ([]entities.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Claim
	for _, c := range r.claims {
		if c.ExecutorID == executorID && !c.Done {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memClaimRepo) OpenClaimsByAssignment(_ context.Context, assignmentID int64) ([]entities.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Claim
	for _, c := range r.claims {
		if c.AssignmentID == assignmentID && !c.Done {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memClaimRepo) DeleteMyOpenClaim(_ context.Context, claimID int64, executorID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[claimID]
	if !ok || c.ExecutorID != executorID || c.Done {
		return false, nil
	}
	delete(r.claims, claimID)
	return true, nil
}

// memAssignmentRepo — задания в памяти для публикатора, напоминаний и выгрузки.
type memAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[int64]*entities.Assignment
	nextID      int64

	markPublishedErr error
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{assignments: make(map[int64]*entities.Assignment)}
}

func (r *memAssignmentRepo) CreateAssignment(_ context.Context, a *entities.Assignment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *a
	stored.ID = r.nextID
	stored.IsActive = true
	r.assignments[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memAssignmentRepo) FindAssignment(_ context.Context, id int64) (*entities.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memAssignmentRepo) MarkPublished(_ context.Context, id int64, chatID int64, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markPublishedErr != nil {
		return r.markPublishedErr
	}
	a, ok := r.assignments[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if a.PublishedChatID != nil {
		return apperrors.ErrAlreadyPublished
	}
	a.PublishedChatID = &chatID
	a.PublishedMessageID = &messageID
	return nil
}

func (r *memAssignmentRepo) DisableAssignment(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || !a.IsActive {
		return false, nil
	}
	a.IsActive = false
	return true, nil
}

func (r *memAssignmentRepo) DeleteAssignment(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || !a.IsActive {
		return false, nil
	}
	delete(r.assignments, id)
	return true, nil
}

func (r *memAssignmentRepo) MyAssignments(_ context.Context, authorID int64) ([]entities.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Assignment
	for _, a := range r.assignments {
		if a.AuthorID == authorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAssignmentRepo) ListActiveAssignments(_ context.Context) ([]entities.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Assignment
	for _, a := range r.assignments {
		if a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

// memThreadRepo — привязки тем в памяти.
type memThreadRepo struct {
	mu       sync.Mutex
	bindings map[string]int64
}

func newMemThreadRepo() *memThreadRepo {
	return &memThreadRepo{bindings: make(map[string]int64)}
}

func (r *memThreadRepo) UpsertBinding(_ context.Context, b entities.ThreadBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[b.WorkType] = b.ThreadID
	return nil
}

func (r *memThreadRepo) GetBinding(_ context.Context, workType string) (*entities.ThreadBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	threadID, ok := r.bindings[workType]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &entities.ThreadBinding{WorkType: workType, ThreadID: threadID}, nil
}

func (r *memThreadRepo) ListBindings(_ context.Context) ([]entities.ThreadBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.ThreadBinding
	for wt, id := range r.bindings {
		out = append(out, entities.ThreadBinding{WorkType: wt, ThreadID: id})
	}
	return out, nil
}

// sentMessage — записанный вызов SendMessage.
type sentMessage struct {
	ChatID int64
	Text   string
}

// recordingSender записывает отправленные сообщения и документы.
type recordingSender struct {
	mu        sync.Mutex
	messages  []sentMessage
	documents []string // имена файлов
	sendErr   error

	nextMessageID int
}

func (s *recordingSender) SendMessage(_ context.Context, chatID int64, text string, _ ...telegram.MessageOption) (*telegram.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.messages = append(s.messages, sentMessage{ChatID: chatID, Text: text})
	s.nextMessageID++
	return &telegram.Message{MessageID: s.nextMessageID, Chat: telegram.Chat{ID: chatID}}, nil
}

func (s *recordingSender) SendDocument(_ context.Context, _ int64, filename string, content []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	if len(content) == 0 {
		return fmt.Errorf("пустой документ %s", filename)
	}
	s.documents = append(s.documents, filename)
	return nil
}

func (s *recordingSender) sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.messages...)
}

// memUserRepo — учёт пользователей в памяти.
type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]entities.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]entities.User)}
}

func (r *memUserRepo) UpsertUser(_ context.Context, user entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) IsAdmin(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID].IsAdmin, nil
}

func (r *memUserRepo) SetMembership(_ context.Context, userID int64, isMember bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.ID = userID
	u.IsMember = isMember
	r.users[userID] = u
	return nil
}

func (r *memUserRepo) ListMemberIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for id, u := range r.users {
		if u.IsMember {
			out = append(out, id)
		}
	}
	return out, nil
}

// fakeChecker — подменный getChatMember.
type fakeChecker struct {
	status string
	err    error
}

func (c *fakeChecker) GetChatMember(_ context.Context, _ int64, _ int64) (string, error) {
	return c.status, c.err
}
