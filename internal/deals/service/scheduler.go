package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the nightly CRM mirror sync.
type Scheduler struct {
	svc  *DealService
	cron *cron.Cron
}

func NewScheduler(svc *DealService) *Scheduler {
	return &Scheduler{
		svc:  svc,
		cron: cron.New(cron.WithSeconds()),
	}
}

// Start registers the sync job. schedule is a 6-field cron expression; the
// default runs nightly at 2:00 AM.
func (s *Scheduler) Start(schedule string) {
	if schedule == "" {
		schedule = "0 0 2 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runSync()
	})
	if err != nil {
		log.Printf("Failed to create CRM sync cron job: %v", err)
		return
	}

	log.Printf("CRM mirror sync scheduled: %s", schedule)
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) runSync() {
	log.Println("CRM mirror sync started...")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	n, err := s.svc.SyncAll(ctx)
	if err != nil {
		log.Printf("CRM mirror sync failed after %d deals: %v", n, err)
		return
	}

	log.Printf("CRM mirror sync completed: %d deals in %s", n, time.Since(start))
}
