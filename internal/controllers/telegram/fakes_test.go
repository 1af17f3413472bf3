package telegram

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"taskbot/internal/entities"
	apperrors "taskbot/pkg/errors"
	"taskbot/pkg/telegram"
)

// fakeTG — подменный Telegram-клиент: запоминает отправленное, членство в чате
// настраивается полем memberStatus.
type fakeTG struct {
	mu sync.Mutex

	messages  []fakeSent
	documents []string
	answered  []string

	memberStatus string
	memberErr    error

	nextMessageID int
}

type fakeSent struct {
	ChatID int64
	Text   string
}

func (f *fakeTG) SendMessage(_ context.Context, chatID int64, text string, _ ...telegram.MessageOption) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, fakeSent{ChatID: chatID, Text: text})
	f.nextMessageID++
	return &telegram.Message{MessageID: f.nextMessageID, Chat: telegram.Chat{ID: chatID}}, nil
}

func (f *fakeTG) AnswerCallbackQuery(_ context.Context, callbackQueryID string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackQueryID)
	return nil
}

func (f *fakeTG) SendDocument(_ context.Context, _ int64, filename string, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, filename)
	return nil
}

func (f *fakeTG) GetMe(_ context.Context) (*telegram.User, error) {
	return &telegram.User{ID: 999, IsBot: true, FirstName: "taskbot", Username: "taskbot_test_bot"}, nil
}

func (f *fakeTG) GetChatMember(_ context.Context, _ int64, _ int64) (string, error) {
	return f.memberStatus, f.memberErr
}

func (f *fakeTG) GetUpdates(_ context.Context, _ int64, _ int) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeTG) DeleteWebhook(_ context.Context, _ bool) error { return nil }
func (f *fakeTG) SetWebhook(_ context.Context, _ string) error  { return nil }

func (f *fakeTG) sent() []fakeSent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeSent(nil), f.messages...)
}

func (f *fakeTG) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1].Text
}

func (f *fakeTG) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
	f.documents = nil
	f.answered = nil
}

// stubAssignmentRepo — задания в памяти.
type stubAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[int64]*entities.Assignment
	nextID      int64

	createErr error
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{assignments: make(map[int64]*entities.Assignment)}
}

func (r *stubAssignmentRepo) CreateAssignment(_ context.Context, a *entities.Assignment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.nextID++
	stored := *a
	stored.ID = r.nextID
	stored.IsActive = true
	r.assignments[stored.ID] = &stored
	return stored.ID, nil
}

func (r *stubAssignmentRepo) FindAssignment(_ context.Context, id int64) (*entities.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *stubAssignmentRepo) MarkPublished(_ context.Context, id int64, chatID int64, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *stubAssignmentRepo) DisableAssignment(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || !a.IsActive {
		return false, nil
	}
	a.IsActive = false
	return true, nil
}

func (r *stubAssignmentRepo) DeleteAssignment(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || !a.IsActive {
		return false, nil
	}
	delete(r.assignments, id)
	return true, nil
}

func (r *stubAssignmentRepo) MyAssignments(_ context.Context, authorID int64) ([]entities.Assignment, error) {
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

func (r *stubAssignmentRepo) ListActiveAssignments(_ context.Context) ([]entities.Assignment, error) {
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

// stubClaimRepo — леджер в памяти; общий объём берётся из репозитория заданий,
// проверка и вставка атомарны под мьютексом.
type stubClaimRepo struct {
	mu          sync.Mutex
	assignments *stubAssignmentRepo
	claims      map[int64]entities.Claim
	nextID      int64
}

func newStubClaimRepo(assignments *stubAssignmentRepo) *stubClaimRepo {
	return &stubClaimRepo{assignments: assignments, claims: make(map[int64]entities.Claim)}
}

func (r *stubClaimRepo) totalLocked(assignmentID int64) decimal.Decimal {
	a, ok := r.assignments.assignments[assignmentID]
	if !ok || !a.IsActive {
		return decimal.Zero
	}
	return a.TotalVolume
}

func (r *stubClaimRepo) takenLocked(assignmentID int64) decimal.Decimal {
	taken := decimal.Zero
	for _, c := range r.claims {
		if c.AssignmentID == assignmentID && !c.Done {
			taken = taken.Add(c.Volume)
		}
	}
	return taken
}

func (r *stubClaimRepo) TakeClaim(_ context.Context, assignmentID int64, executorID int64, volume decimal.Decimal) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments.mu.Lock()
	total := r.totalLocked(assignmentID)
	r.assignments.mu.Unlock()

	if err := entities.CheckClaim(assignmentID, total, r.takenLocked(assignmentID), volume); err != nil {
		return 0, err
	}
	r.nextID++
	r.claims[r.nextID] = entities.Claim{
		ID: r.nextID, AssignmentID: assignmentID, ExecutorID: executorID, Volume: volume,
	}
	return r.nextID, nil
}

func (r *stubClaimRepo) FreeVolume(_ context.Context, assignmentID int64) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments.mu.Lock()
	total := r.totalLocked(assignmentID)
	r.assignments.mu.Unlock()
	return entities.FreeVolume(total, r.takenLocked(assignmentID)), nil
}

func (r *stubClaimRepo) MyOpenClaims(_ context.Context, executorID int64) ([]entities.Claim, error) {
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

func (r *stubClaimRepo) OpenClaimsByAssignment(_ context.Context, assignmentID int64) ([]entities.Claim, error) {
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

func (r *stubClaimRepo) DeleteMyOpenClaim(_ context.Context, claimID int64, executorID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[claimID]
	if !ok || c.ExecutorID != executorID || c.Done {
		return false, nil
	}
	delete(r.claims, claimID)
	return true, nil
}

// stubCustomerRepo — справочник заказчиков в памяти.
type stubCustomerRepo struct {
	customers []entities.Customer
}

func (r *stubCustomerRepo) ListCustomers(_ context.Context) ([]entities.Customer, error) {
	return r.customers, nil
}

func (r *stubCustomerRepo) FindCustomer(_ context.Context, id int64) (*entities.Customer, error) {
	for _, c := range r.customers {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// stubThreadRepo — привязки тем в памяти.
type stubThreadRepo struct {
	mu       sync.Mutex
	bindings map[string]int64
}

func newStubThreadRepo() *stubThreadRepo {
	return &stubThreadRepo{bindings: make(map[string]int64)}
}

func (r *stubThreadRepo) UpsertBinding(_ context.Context, b entities.ThreadBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[b.WorkType] = b.ThreadID
	return nil
}

func (r *stubThreadRepo) GetBinding(_ context.Context, workType string) (*entities.ThreadBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	threadID, ok := r.bindings[workType]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &entities.ThreadBinding{WorkType: workType, ThreadID: threadID}, nil
}

func (r *stubThreadRepo) ListBindings(_ context.Context) ([]entities.ThreadBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.ThreadBinding
	for wt, id := range r.bindings {
		out = append(out, entities.ThreadBinding{WorkType: wt, ThreadID: id})
	}
	return out, nil
}

// stubUserRepo — пользователи в памяти.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[int64]entities.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]entities.User)}
}

func (r *stubUserRepo) UpsertUser(_ context.Context, user entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) IsAdmin(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID].IsAdmin, nil
}

func (r *stubUserRepo) SetMembership(_ context.Context, userID int64, isMember bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.ID = userID
	u.IsMember = isMember
	r.users[userID] = u
	return nil
}

func (r *stubUserRepo) ListMemberIDs(_ context.Context) ([]int64, error) {
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
