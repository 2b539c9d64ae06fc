package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"everytask/internal/model"
	"everytask/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageImpact
	stageDeadline
)

const (
	cbProgressPrefix = "progress:"
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// Services are the application services the bot talks to.
type Services struct {
	Users      *service.UserService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Stats      *service.StatsService
	Reminders  *service.ReminderService
}

// Bot routes Telegram updates to the application services.
type Bot struct {
	api     *tgbotapi.BotAPI
	svc     Services
	loc     *time.Location
	drafts  *sessions[*conversationState]
	pending *sessions[confirmationRequest]
}

func New(token string, svc Services, loc *time.Location) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	log.Printf("[info] bot authorized as @%s", api.Self.UserName)

	return &Bot{
		api:     api,
		svc:     svc,
		loc:     loc,
		drafts:  newSessions[*conversationState](),
		pending: newSessions[confirmationRequest](),
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)
	log.Println("[info] polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if err := b.route(ctx, update); err != nil {
			log.Printf("update %d: %v", update.UpdateID, err)
		}
	}
	return ctx.Err()
}

func (b *Bot) route(ctx context.Context, update tgbotapi.Update) error {
	if cb := update.CallbackQuery; cb != nil {
		return b.handleCallback(ctx, cb)
	}
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return nil
	}
	return b.handleMessage(ctx, msg)
}

// SendDailyReports sends the digest to every user linked to Telegram.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.svc.Users.ListTelegramUsers(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	sent := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.svc.Reminders.DailySummary(ctx, user, now)
		if err != nil {
			log.Printf("summary for user %d: %v", user.ID, err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			log.Printf("send summary to %d: %v", *user.TelegramID, err)
			continue
		}
		sent++
	}
	log.Printf("[info] daily reports sent=%d users=%d", sent, len(users))
	return nil
}

func (b *Bot) now() time.Time {
	return time.Now().In(b.loc)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return b.svc.Users.EnsureTelegramUser(ctx, from.ID, name)
}

// send delivers an HTML message. A nil markup shows the main menu.
func (b *Bot) send(chatID int64, text string, markup interface{}) error {
	if markup == nil {
		markup = mainMenuKeyboard()
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.send(chatID, text, nil)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	return b.send(chatID, text, markup)
}

// sendTextWithRemove closes a one-off keyboard before bringing the menu back.
func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	if err := b.send(chatID, text, tgbotapi.NewRemoveKeyboard(true)); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	return b.send(chatID, "🔹 Главное меню", nil)
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
}
