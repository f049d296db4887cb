package pendingmedia

import (
	"github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-media/internal/repositories"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	"github.com/go-kratos/kratos/v2/log"
)

// ProvideReconciler 装配对账任务。
func ProvideReconciler(
	repo *repositories.VideoRepository,
	publisher services.MediaEventPublisher,
	cfg configloader.ReconcilerConfig,
	logger log.Logger,
) *Reconciler {
	reconciler, err := NewReconciler(repo, publisher, Config{
		Interval:    cfg.Interval,
		StaleAfter:  cfg.StaleAfter,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
	}, logger)
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init pending media reconciler failed", "error", err)
		return nil
	}
	return reconciler
}

var _ Store = (*repositories.VideoRepository)(nil)
