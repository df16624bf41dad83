package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/testvault-io/testvault-backend/internal/testcases/domain"
)

// ActiveProjects lists the project ids worth keeping warm.
type ActiveProjects interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// StatsComputer recomputes a project's stats from the store.
type StatsComputer interface {
	ComputeStats(ctx context.Context, projectID int64) (*domain.Stats, error)
}

// StatsSink receives the recomputed stats.
type StatsSink interface {
	Set(ctx context.Context, projectID int64, stats *domain.Stats)
}

// StatsWarmer periodically recomputes cached stats for active projects
// so dashboard reads stay warm between mutations.
type StatsWarmer struct {
	projects ActiveProjects
	computer StatsComputer
	sink     StatsSink
	spec     string
	cron     *cron.Cron
}

// NewStatsWarmer creates a warmer with the given cron spec (seconds
// field included, e.g. "0 */5 * * * *").
func NewStatsWarmer(projects ActiveProjects, computer StatsComputer, sink StatsSink, spec string) *StatsWarmer {
	return &StatsWarmer{projects: projects, computer: computer, sink: sink, spec: spec}
}

// Start schedules the warm-up job.
func (w *StatsWarmer) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(w.spec, func() {
		w.Run(context.Background())
	})
	if err != nil {
		log.Printf("Failed to create stats warmer job: %v", err)
		return
	}

	log.Printf("Stats warmer started (spec %q)", w.spec)
	c.Start()
	w.cron = c
}

// Stop cancels the schedule; a run already in flight finishes.
func (w *StatsWarmer) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// Run recomputes stats for every active project once.
func (w *StatsWarmer) Run(ctx context.Context) {
	started := time.Now()

	ids, err := w.projects.ListActiveIDs(ctx)
	if err != nil {
		log.Printf("Stats warmer: list projects: %v", err)
		return
	}

	warmed := 0
	for _, id := range ids {
		stats, err := w.computer.ComputeStats(ctx, id)
		if err != nil {
			log.Printf("Stats warmer: project %d: %v", id, err)
			continue
		}
		w.sink.Set(ctx, id, stats)
		warmed++
	}

	log.Printf("Stats warmer: warmed %d/%d projects in %s", warmed, len(ids), time.Since(started).Round(time.Millisecond))
}
