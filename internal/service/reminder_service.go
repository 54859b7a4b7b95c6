package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fpagador/astrade-sub000/internal/clock"
	"github.com/fpagador/astrade-sub000/internal/model"
	"github.com/fpagador/astrade-sub000/internal/notify"
	"github.com/fpagador/astrade-sub000/internal/repository"
)

// ReminderService pushes task reminders and daily agendas to mobile users
// with a linked chat.
type ReminderService struct {
	tasks    *repository.TaskRepository
	users    *repository.UserRepository
	notifier notify.Notifier
	clock    clock.Clock
	log      *zap.Logger
}

func NewReminderService(tasks *repository.TaskRepository, users *repository.UserRepository, notifier notify.Notifier, clk clock.Clock, log *zap.Logger) *ReminderService {
	return &ReminderService{tasks: tasks, users: users, notifier: notifier, clock: clk, log: log}
}

// SendDueReminders pushes a reminder for every pending task scheduled today
// whose reminder instant (scheduled time minus the lead) has arrived and was
// not pushed yet. Delivery failures are logged, never fatal: the sweep runs
// again shortly.
func (s *ReminderService) SendDueReminders(ctx context.Context) error {
	now := s.clock.Now()
	due, err := s.tasks.ListDueForReminder(ctx, clock.Today(s.clock))
	if err != nil {
		return err
	}

	chats := make(map[uint]*int64)
	for i := range due {
		task := &due[i]

		at, err := reminderInstant(task, now.Location())
		if err != nil {
			s.log.Warn("unparseable scheduled time",
				zap.Uint("task_id", task.ID), zap.String("time", task.ScheduledTime))
			continue
		}
		if now.Before(at) {
			continue
		}

		chatID, ok := chats[task.UserID]
		if !ok {
			user, err := s.users.FindByID(ctx, task.UserID)
			if err != nil {
				s.log.Warn("reminder owner lookup failed", zap.Uint("user_id", task.UserID), zap.Error(err))
				continue
			}
			chatID = user.TelegramChatID
			chats[task.UserID] = chatID
		}
		if chatID == nil {
			continue
		}

		if err := s.notifier.Notify(ctx, *chatID, formatReminder(*task)); err != nil {
			s.log.Warn("reminder delivery failed", zap.Uint("task_id", task.ID), zap.Error(err))
			continue
		}
		if err := s.tasks.MarkReminderSent(ctx, task, now); err != nil {
			return err
		}
	}
	return nil
}

// SendDailyAgendas pushes each reachable user their task list for today.
func (s *ReminderService) SendDailyAgendas(ctx context.Context) error {
	users, err := s.users.ListWithChatID(ctx)
	if err != nil {
		return err
	}

	today := clock.Today(s.clock)
	for _, user := range users {
		tasks, err := s.tasks.ListForDay(ctx, user.ID, today)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			continue
		}
		if err := s.notifier.Notify(ctx, *user.TelegramChatID, formatAgenda(tasks, today)); err != nil {
			s.log.Warn("agenda delivery failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// reminderInstant is the scheduled time minus the reminder lead, on the
// task's scheduled date in the given location.
func reminderInstant(task *model.Task, loc *time.Location) (time.Time, error) {
	hm, err := time.Parse("15:04", task.ScheduledTime)
	if err != nil {
		return time.Time{}, err
	}
	d := *task.ScheduledDate
	at := time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, loc)
	return at.Add(-time.Duration(task.ReminderMinutes) * time.Minute), nil
}

func formatReminder(task model.Task) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏰ <b>%s</b>", html.EscapeString(strings.TrimSpace(task.Title))))
	if task.ScheduledTime != "" {
		sb.WriteString(fmt.Sprintf(" at %s", task.ScheduledTime))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n%s", html.EscapeString(strings.TrimSpace(task.Description))))
	}
	return sb.String()
}

func formatAgenda(tasks []model.Task, day time.Time) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Today's tasks</b>\n")
	sb.WriteString(fmt.Sprintf("🗓 %s\n\n", day.Format("02.01.2006")))
	for _, task := range tasks {
		icon := "🟢"
		if task.Status == model.TaskStatusCompleted {
			icon = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
		if task.ScheduledTime != "" {
			sb.WriteString(fmt.Sprintf(" · %s", task.ScheduledTime))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}
