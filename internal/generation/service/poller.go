package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
)

// Poller is the poll half of the dual-channel completion signal. It walks the
// active run set on an interval and feeds orchestrator status into
// ReportProgress, where the completion latch makes it race-safe against the
// callback channel.
type Poller struct {
	svc      *GenerationService
	interval time.Duration
}

func NewPoller(svc *GenerationService, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{svc: svc, interval: interval}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Printf("generation status poller started (interval %s)", p.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("generation status poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	runIDs, err := p.svc.runRepo.ActiveRuns(ctx)
	if err != nil {
		log.Printf("poller: failed to list active runs: %v", err)
		return
	}

	for _, runID := range runIDs {
		run, err := p.svc.GetRun(ctx, runID)
		if err != nil {
			if errors.Is(err, domain.ErrRunNotFound) {
				continue
			}
			log.Printf("poller: failed to load run_id=%s: %v", runID, err)
			continue
		}
		if run.ExecutionID == "" || !run.Active() {
			continue
		}

		reqCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		progress, err := p.svc.orchestrator.GetExecution(reqCtx, run.ExecutionID)
		cancel()
		if err != nil {
			log.Printf("poller: status read failed run_id=%s: %v", runID, err)
			continue
		}

		if _, _, err := p.svc.ReportProgress(ctx, runID, run.ExecutionID, progress); err != nil {
			log.Printf("poller: failed to apply progress run_id=%s: %v", runID, err)
		}
	}
}
