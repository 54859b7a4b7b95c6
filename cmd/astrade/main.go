package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fpagador/astrade-sub000/internal/clock"
	"github.com/fpagador/astrade-sub000/internal/config"
	"github.com/fpagador/astrade-sub000/internal/handlers"
	"github.com/fpagador/astrade-sub000/internal/logger"
	"github.com/fpagador/astrade-sub000/internal/notify"
	"github.com/fpagador/astrade-sub000/internal/repository"
	"github.com/fpagador/astrade-sub000/internal/service"
	"github.com/fpagador/astrade-sub000/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("open database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	store, err := storage.NewDiskStore(cfg.AttachmentDir)
	if err != nil {
		zlog.Fatal("attachment store", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	recurrentRepo := repository.NewRecurrentTaskRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)

	clk := clock.System()

	absenceSvc := service.NewAbsenceService(absenceRepo, calendarRepo, userRepo)
	taskSvc := service.NewTaskService(db, taskRepo, subtaskRepo, recurrentRepo, absenceSvc, store, clk, zlog)
	subtaskSvc := service.NewSubtaskService(db, subtaskRepo, taskRepo, zlog)
	querySvc := service.NewQueryService(taskRepo, userRepo, absenceRepo, clk)

	var notifier notify.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.TelegramToken, zlog)
		if err != nil {
			zlog.Fatal("notifier", zap.Error(err))
		}
	} else {
		zlog.Warn("no TELEGRAM_TOKEN set, reminders will only be logged")
		notifier = notify.NewLogNotifier(zlog)
	}
	reminderSvc := service.NewReminderService(taskRepo, userRepo, notifier, clk, zlog)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.ReminderInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := reminderSvc.SendDueReminders(jobCtx); err != nil {
			zlog.Error("reminder sweep", zap.Error(err))
		}
	}); err != nil {
		zlog.Fatal("schedule reminders", zap.Error(err))
	}
	if cfg.AgendaTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.AgendaTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := reminderSvc.SendDailyAgendas(jobCtx); err != nil {
				zlog.Error("agenda push", zap.Error(err))
			}
		}); err != nil {
			zlog.Fatal("schedule agendas", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	h := handlers.New(taskSvc, subtaskSvc, querySvc, store, zlog)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.Router(),
	}

	go func() {
		zlog.Info("server started", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}
