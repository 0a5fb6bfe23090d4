package keeper

import (
	"context"
	"time"

	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxParallelRuns = 4

// Keeper drives the recurring-trade scheduler: on every cron tick it scans
// for due actions and executes them. Each run is claimed before the swap is
// issued, so overlapping ticks cannot double-run an action.
type Keeper struct {
	dcaService services.DcaService
	logger     *zap.Logger
	cron       *cron.Cron
	spec       string
}

func NewKeeper(dcaService services.DcaService, logger *zap.Logger, spec string) *Keeper {
	// Receipt polling can outlast the tick interval, so a slow tick is
	// skipped instead of stacked on top of the running one.
	return &Keeper{
		dcaService: dcaService,
		logger:     logger,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:       spec,
	}
}

// Start registers the tick schedule and launches the cron loop.
func (k *Keeper) Start() error {
	if _, err := k.cron.AddFunc(k.spec, k.tick); err != nil {
		return err
	}
	k.cron.Start()
	k.logger.Info("keeper started", zap.String("schedule", k.spec))
	return nil
}

// Stop halts the schedule and waits for in-flight runs to finish.
func (k *Keeper) Stop() {
	ctx := k.cron.Stop()
	<-ctx.Done()
	k.logger.Info("keeper stopped")
}

func (k *Keeper) tick() {
	due, err := k.dcaService.DueActions(time.Now())
	if err != nil {
		k.logger.Error("failed to scan due actions", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}
	k.logger.Info("executing due actions", zap.Int("count", len(due)))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(maxParallelRuns)
	for _, action := range due {
		actionID := action.ID
		g.Go(func() error {
			if err := k.dcaService.RunAction(ctx, actionID); err != nil {
				k.logger.Warn("action run failed",
					zap.Uint("action_id", actionID),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}
