package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"everytask/internal/model"
	"everytask/internal/service"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.drafts.drop(msg.From.ID)
		b.pending.drop(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Можно начать заново.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.pending.get(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state, ok := b.drafts.get(msg.From.ID); ok {
		log.Printf("[info] conversation step %d from %d", state.stage, msg.From.ID)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "progress":
		return b.handleMoveCommand(ctx, msg, model.StatusInProgress)
	case "todo":
		return b.handleMoveCommand(ctx, msg, model.StatusTodo)
	case "done", "complete":
		return b.handleMoveCommand(ctx, msg, model.StatusDone)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "profile":
		return b.handleProfile(ctx, msg)
	case "streak":
		return b.handleStreak(ctx, msg)
	case "badges":
		return b.handleBadges(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.drafts.drop(msg.From.ID)
		b.pending.drop(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelProfile):
		return true, b.handleProfile(ctx, msg)
	case strings.ToLower(menuLabelBadges):
		return true, b.handleBadges(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я доска задач с очками, уровнями и значками.</b>\n"+
			"Закрывай задачи, держи серию дней и собирай награды.\n\n%s",
		escape(name), commandList,
	)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "• /newtask — добавить задачу\n" +
	"• /tasks — доска: в работе и к выполнению\n" +
	"• /progress &lt;id&gt; — взять задачу в работу\n" +
	"• /done &lt;id&gt; — отметить выполненной\n" +
	"• /todo &lt;id&gt; — вернуть в список дел\n" +
	"• /delete &lt;id&gt; — удалить задачу\n" +
	"• /categories — категории\n" +
	"• /profile — очки и уровень\n" +
	"• /streak — серия дней\n" +
	"• /badges — значки\n" +
	"• /report — отчёт за день\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Подсказки</b>\n"+commandList)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.pending.drop(msg.From.ID)
	b.drafts.put(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь короткое описание (или нажми «Пропустить»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери категорию или отправь свою (можно «Пропустить»).", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stageImpact
		return b.sendWithReplyMarkup(msg.Chat.ID, "🎯 Насколько задача важна и сложна? От этого зависят очки.", impactKeyboard())
	case stageImpact:
		if !isSkipInput(text) {
			impact, ok := parseImpact(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери вариант с клавиатуры.", impactKeyboard())
			}
			state.input.Impact = impact
		}
		state.stage = stageDeadline
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Укажи дедлайн в формате <code>2025-11-30</code> (или «Пропустить» — до конца дня).", skipKeyboard())
	case stageDeadline:
		if !isSkipInput(text) {
			due, err := parseDeadline(text, b.loc)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или «Пропустить».", skipKeyboard())
			}
			state.input.DueDate = due
		}
		b.drafts.drop(msg.From.ID)
		return b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
	default:
		b.drafts.drop(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, outcome, err := b.svc.Tasks.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendTextWithRemove(chatID, userError("Не удалось сохранить задачу", err))
	}

	log.Printf("[info] task created id=%d user=%d impact=%s", task.ID, user.ID, task.Impact)

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Описание:</b> %s\n", escape(task.Description)))
	}
	summary.WriteString(fmt.Sprintf("• <b>Тип:</b> %s\n", impactLabel(task.Impact)))
	summary.WriteString(fmt.Sprintf("• <b>Дедлайн:</b> %s\n", task.DueDate.In(b.loc).Format("2006-01-02")))
	summary.WriteString(formatOutcome(outcome))

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	log.Printf("[info] list tasks for user=%d", user.ID)
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	board, err := b.svc.Tasks.Board(ctx, user)
	if err != nil {
		return b.sendText(chatID, userError("Не удалось получить задачи", err))
	}
	if len(board[model.StatusTodo]) == 0 && len(board[model.StatusInProgress]) == 0 {
		return b.sendText(chatID, "У тебя нет открытых задач. Добавь новую через /newtask.")
	}

	categories, _ := b.svc.Categories.List(ctx, user)
	catNames := make(map[uint]string, len(categories))
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	now := b.now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Доска задач</b>\n")
	builder.WriteString("Кнопки: ▶️ в работу · ✅ выполнить · 🗑 удалить.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, status := range []model.TaskStatus{model.StatusInProgress, model.StatusTodo} {
		tasks := board[status]
		if len(tasks) == 0 {
			continue
		}
		builder.WriteString(statusTitle(status) + "\n")
		for _, task := range tasks {
			builder.WriteString(formatTask(task, catNames, now))
			row := []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
			}
			if status == model.StatusTodo {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("%s%d", cbProgressPrefix, task.ID)))
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)))
			buttons = append(buttons, row)
		}
		builder.WriteByte('\n')
	}
	if done := len(board[model.StatusDone]); done > 0 {
		builder.WriteString(fmt.Sprintf("✅ Выполнено всего: %d\n", done))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleMoveCommand(ctx context.Context, msg *tgbotapi.Message, status model.TaskStatus) error {
	taskID, err := parseTaskID(strings.TrimSpace(msg.CommandArguments()), "")
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Укажи ID задачи числом: /%s 12", msg.Command()))
	}
	return b.moveTaskAndReport(ctx, msg.Chat.ID, msg.From, taskID, status)
}

func (b *Bot) moveTaskAndReport(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, status model.TaskStatus) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	current, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, userError("Задача не найдена", err))
	}
	if current.Status == status {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Задача уже в колонке «%s».", statusName(status)))
	}

	task, outcome, err := b.svc.Tasks.MoveTask(ctx, user, taskID, status)
	if err != nil {
		return b.sendTextWithRemove(chatID, userError("Не удалось обновить задачу", err))
	}
	log.Printf("[info] task moved id=%d user=%d status=%s", task.ID, user.ID, task.Status)

	var text string
	switch status {
	case model.StatusDone:
		text = fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(task.Title)))
	case model.StatusInProgress:
		text = fmt.Sprintf("🚧 Задача «%s» в работе.", escape(normalizeTitle(task.Title)))
	default:
		text = fmt.Sprintf("📝 Задача «%s» снова в списке дел.", escape(normalizeTitle(task.Title)))
	}
	text += formatOutcome(outcome)
	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(text)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseTaskID(strings.TrimSpace(msg.CommandArguments()), "")
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи числом: /delete 12")
	}
	return b.askConfirmation(ctx, msg.Chat.ID, msg.From, taskID, actionDelete)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, userError("Задача не найдена или уже удалена", err))
	}
	if err := b.svc.Tasks.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendTextWithRemove(chatID, userError("Не удалось удалить задачу", err))
	}

	log.Printf("[info] task deleted id=%d user=%d", task.ID, user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	b.ack(cb)

	data := cb.Data
	chatID := cb.Message.Chat.ID
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, data)

	switch {
	case strings.HasPrefix(data, cbProgressPrefix):
		taskID, err := parseTaskID(data, cbProgressPrefix)
		if err != nil {
			return nil
		}
		return b.moveTaskAndReport(ctx, chatID, cb.From, taskID, model.StatusInProgress)
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, chatID, cb.From, taskID, actionComplete)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, chatID, cb.From, taskID, actionDelete)
	default:
		return nil
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, action confirmationAction) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, userError("Задача не найдена", err))
	}

	var text string
	if action == actionComplete {
		if task.Status == model.StatusDone {
			return b.sendText(chatID, "Задача уже выполнена.")
		}
		text = fmt.Sprintf("Отметить задачу «%s» (#%d) как выполненную?", escape(normalizeTitle(task.Title)), task.ID)
	} else {
		text = fmt.Sprintf("Удалить задачу «%s» (#%d)?", escape(normalizeTitle(task.Title)), task.ID)
	}
	b.drafts.drop(from.ID)
	b.pending.put(from.ID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.pending.drop(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
		}
		return b.moveTaskAndReport(ctx, msg.Chat.ID, msg.From, req.taskID, model.StatusDone)
	case isCancelInput(text):
		b.pending.drop(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Подтверди или отмени выполнение задачи."
		if req.action == actionDelete {
			prompt = "Подтверди или отмени удаление задачи."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.svc.Categories.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, userError("Не удалось получить категории", err))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Категории пока пусты. Добавь их при создании задачи.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", categoryLabel(cat.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatProfile(service.NewProfile(user)))
}

func (b *Bot) handleStreak(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	view, err := b.svc.Stats.Streak(ctx, user.ID, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, userError("Не удалось получить серию", err))
	}
	return b.sendText(msg.Chat.ID, formatStreak(view))
}

func (b *Bot) handleBadges(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	badges, err := b.svc.Stats.Badges(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, userError("Не удалось получить значки", err))
	}
	return b.sendText(msg.Chat.ID, formatBadges(badges))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.svc.Reminders.DailySummary(ctx, *user, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, userError("Не удалось сформировать отчёт", err))
	}
	return b.sendText(msg.Chat.ID, text)
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, errors.New("task id must be positive")
	}
	return uint(value), nil
}

// userError renders an error for chat. Internal errors are logged, not shown.
func userError(prefix string, err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return prefix + "."
	case errors.Is(err, service.ErrInvalidInput):
		return fmt.Sprintf("%s: %s", prefix, escape(strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")))
	default:
		log.Printf("%s: %v", prefix, err)
		return prefix + ". Попробуй позже."
	}
}
