package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService drives the two background jobs: the reminder sweep,
// running on a short fixed interval, and the daily agenda push at a
// configured wall-clock time.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{cron: cron.New(cron.WithLocation(loc))}
}

// ScheduleInterval runs job every interval. The reminder sweep registers
// through this.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", interval)
	}
	return s.cron.AddFunc("@every "+interval.String(), job)
}

// ScheduleDaily runs job once a day at the given HH:MM time in the
// scheduler's location. The agenda push registers through this.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	at, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	return s.cron.AddFunc(fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()), job)
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to return.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}
