package services

import (
	"context"
	"time"

	"brigade-service/internal/repository"
	"brigade-service/pkg/logger"
)

// SweeperService reconciles the object store with the images table. It
// removes rows stuck in pending together with their objects, and objects
// that no row references.
type SweeperService struct {
	images      repository.ImageRepository
	store       ObjectStore
	attachments *AttachmentService
	pendingTTL  time.Duration
	orphanGrace time.Duration
	logger      *logger.Logger
	now         func() time.Time
}

func NewSweeperService(images repository.ImageRepository, store ObjectStore, attachments *AttachmentService, pendingTTL, orphanGrace time.Duration, l *logger.Logger) *SweeperService {
	if l == nil {
		l = logger.NewNop()
	}
	return &SweeperService{
		images:      images,
		store:       store,
		attachments: attachments,
		pendingTTL:  pendingTTL,
		orphanGrace: orphanGrace,
		logger:      l,
		now:         time.Now,
	}
}

type SweepReport struct {
	PendingRemoved int      `json:"pendingRemoved"`
	OrphansRemoved int      `json:"orphansRemoved"`
	Failed         []string `json:"failed,omitempty"`
}

// Sweep runs one reconciliation pass. Individual failures are collected in
// the report; an error is returned only when listing fails.
func (s *SweeperService) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	stale, err := s.images.ListStalePending(ctx, s.pendingTTL)
	if err != nil {
		return report, err
	}
	for i := range stale {
		if err := s.attachments.RemoveImage(ctx, &stale[i]); err != nil {
			s.logger.WithContext(ctx).Warnf("sweep: pending image %d: %v", stale[i].ID, err)
			report.Failed = append(report.Failed, stale[i].ObjectKey)
			continue
		}
		report.PendingRemoved++
	}

	objects, err := s.store.ListObjects(ctx, s.store.Prefix()+"/")
	if err != nil {
		return report, err
	}
	cutoff := s.now().Add(-s.orphanGrace)
	candidates := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.LastModified.IsZero() || obj.LastModified.Before(cutoff) {
			candidates = append(candidates, obj.Key)
		}
	}
	if len(candidates) == 0 {
		return report, nil
	}

	known, err := s.images.ExistingKeys(ctx, candidates)
	if err != nil {
		return report, err
	}
	for _, key := range candidates {
		if known[key] {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.WithContext(ctx).Warnf("sweep: orphan %s: %v", key, err)
			report.Failed = append(report.Failed, key)
			continue
		}
		report.OrphansRemoved++
	}

	if report.PendingRemoved > 0 || report.OrphansRemoved > 0 || len(report.Failed) > 0 {
		s.logger.WithContext(ctx).Infof("sweep: removed %d pending rows and %d orphan objects, %d failed",
			report.PendingRemoved, report.OrphansRemoved, len(report.Failed))
	}
	return report, nil
}

// Run sweeps every interval until ctx is done.
func (s *SweeperService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.WithContext(ctx).Errorf("sweep failed: %v", err)
			}
		}
	}
}
