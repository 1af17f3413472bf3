// Файл: pkg/telegram/service.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// --- ОСНОВНОЙ ИНТЕРФЕЙС СЕРВИСА ---

type ServiceInterface interface {
	SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (*Message, error)
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error

	GetMe(ctx context.Context) (*User, error)
	GetChatMember(ctx context.Context, chatID int64, userID int64) (string, error)
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error)
	DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error
	SetWebhook(ctx context.Context, url string) error
}

type Service struct {
	botToken   string
	apiBase    string
	httpClient *http.Client
	debug      bool
}

func NewService(botToken string) *Service {
	debug := strings.Contains(strings.ToLower(os.Getenv("DEBUG")), "telegram")

	return &Service{
		botToken: botToken,
		apiBase:  "https://api.telegram.org",
		// Таймаут должен превышать long-poll timeout getUpdates.
		httpClient: &http.Client{Timeout: 65 * time.Second},
		debug:      debug,
	}
}

// --- СТРУКТУРЫ ЗАПРОСОВ ---

type sendMessageRequest struct {
	ChatID          int64       `json:"chat_id"`
	Text            string      `json:"text"`
	ParseMode       string      `json:"parse_mode,omitempty"`
	MessageThreadID int64       `json:"message_thread_id,omitempty"`
	ReplyMarkup     interface{} `json:"reply_markup,omitempty"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type ReplyKeyboardButton struct {
	Text string `json:"text"`
}

type replyKeyboardMarkup struct {
	Keyboard        [][]ReplyKeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool                    `json:"resize_keyboard"`
	OneTimeKeyboard bool                    `json:"one_time_keyboard,omitempty"`
}

type callbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type MessageOption func(*sendMessageRequest)

func WithKeyboard(rows [][]InlineKeyboardButton) MessageOption {
	return func(req *sendMessageRequest) {
		if len(rows) > 0 {
			req.ReplyMarkup = inlineKeyboardMarkup{InlineKeyboard: rows}
		}
	}
}

func WithReplyKeyboard(rows [][]ReplyKeyboardButton) MessageOption {
	return func(req *sendMessageRequest) {
		if len(rows) > 0 {
			req.ReplyMarkup = replyKeyboardMarkup{
				Keyboard:       rows,
				ResizeKeyboard: true,
			}
		}
	}
}

func WithHTML() MessageOption {
	return func(req *sendMessageRequest) {
		req.ParseMode = "HTML"
	}
}

// WithThread направляет сообщение в под-тему (topic) супергруппы.
func WithThread(threadID int64) MessageOption {
	return func(req *sendMessageRequest) {
		req.MessageThreadID = threadID
	}
}

// --- МЕТОДЫ API ---

func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (*Message, error) {
	req := &sendMessageRequest{ChatID: chatID, Text: text}
	for _, opt := range options {
		opt(req)
	}

	var msg Message
	if err := s.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string) error {
	return s.call(ctx, "answerCallbackQuery", &callbackQueryRequest{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	}, nil)
}

func (s *Service) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := s.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (s *Service) GetChatMember(ctx context.Context, chatID int64, userID int64) (string, error) {
	req := struct {
		ChatID int64 `json:"chat_id"`
		UserID int64 `json:"user_id"`
	}{chatID, userID}

	var member chatMember
	if err := s.call(ctx, "getChatMember", req, &member); err != nil {
		return "", err
	}
	return member.Status, nil
}

func (s *Service) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	req := struct {
		Offset  int64    `json:"offset"`
		Timeout int      `json:"timeout"`
		Allowed []string `json:"allowed_updates"`
	}{offset, timeoutSec, []string{"message", "callback_query"}}

	var updates []Update
	if err := s.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (s *Service) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error {
	req := struct {
		DropPendingUpdates bool `json:"drop_pending_updates"`
	}{dropPendingUpdates}
	return s.call(ctx, "deleteWebhook", req, nil)
}

func (s *Service) SetWebhook(ctx context.Context, url string) error {
	req := struct {
		URL string `json:"url"`
	}{url}
	return s.call(ctx, "setWebhook", req, nil)
}

// SendDocument отправляет файл как документ (multipart/form-data).
func (s *Service) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error {
	if s.botToken == "" {
		return fmt.Errorf("токен Telegram-бота не установлен")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", s.apiBase, s.botToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ошибка запроса sendDocument: %w", err)
	}
	defer resp.Body.Close()
	return s.decodeResponse(resp, nil)
}

// --- НИЗКОУРОВНЕВЫЙ ВЫЗОВ ---

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (s *Service) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	if s.botToken == "" {
		return fmt.Errorf("токен Telegram-бота не установлен")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации запроса %s: %w", method, err)
	}

	if s.debug {
		fmt.Printf("[telegram] >> %s %s\n", method, string(data))
	}

	url := fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.botToken, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ошибка запроса %s: %w", method, err)
	}
	defer resp.Body.Close()

	return s.decodeResponse(resp, out)
}

func (s *Service) decodeResponse(resp *http.Response, out interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа Telegram: %w", err)
	}

	if s.debug {
		fmt.Printf("[telegram] << %s\n", string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("ошибка разбора ответа Telegram (status %d): %w", resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram API: %s (status %d)", apiResp.Description, resp.StatusCode)
	}
	if out != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("ошибка разбора result: %w", err)
		}
	}
	return nil
}
