package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/raffle-network/raffle/internal/core/ports"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

// ScheduleTask runs task every interval. A run is skipped if the previous
// one is still in progress.
func (s *service) ScheduleTask(
	interval time.Duration, immediate bool, task func(),
) error {
	if interval < time.Second {
		return fmt.Errorf("task interval must be at least 1s, got %s", interval)
	}

	job := s.scheduler.Every(interval).SingletonMode()
	if !immediate {
		job = job.WaitForSchedule()
	}
	_, err := job.Do(task)
	return err
}
