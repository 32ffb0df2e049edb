package service

import (
	"context"
	"errors"
	"fmt"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"
)

// Worklist is what a completion scan has to do for one user.
type Worklist struct {
	// Awards are completed courses without a course badge.
	Awards []model.ProgressRecord
	// CertificateRepairs have the badge but lost the certificate, usually
	// because an earlier award failed halfway.
	CertificateRepairs []model.ProgressRecord
}

func (w Worklist) Empty() bool {
	return len(w.Awards) == 0 && len(w.CertificateRepairs) == 0
}

type CompletionDetector struct {
	ProgressRepo    ProgressStore
	BadgeRepo       BadgeStore
	CertificateRepo CertificateStore
}

func NewCompletionDetector(progress ProgressStore, badges BadgeStore, certs CertificateStore) *CompletionDetector {
	return &CompletionDetector{
		ProgressRepo:    progress,
		BadgeRepo:       badges,
		CertificateRepo: certs,
	}
}

// Detect lists completed courses that still need a badge or a certificate.
// A store failure aborts the whole scan; nothing is partially returned.
func (d *CompletionDetector) Detect(ctx context.Context, userID string) (Worklist, error) {
	var wl Worklist

	completed, err := d.ProgressRepo.ListCompleted(ctx, userID)
	if err != nil {
		return wl, fmt.Errorf("detect completions: %w", err)
	}

	for _, rec := range completed {
		_, err := d.BadgeRepo.FindBySource(ctx, userID, model.SourceCourse, rec.CourseID)
		switch {
		case errors.Is(err, util.ErrNotFound):
			wl.Awards = append(wl.Awards, rec)
			continue
		case err != nil:
			return Worklist{}, fmt.Errorf("detect completions: %w", err)
		}

		_, err = d.CertificateRepo.FindByUserAndCourse(ctx, userID, rec.CourseID)
		switch {
		case errors.Is(err, util.ErrNotFound):
			wl.CertificateRepairs = append(wl.CertificateRepairs, rec)
		case err != nil:
			return Worklist{}, fmt.Errorf("detect completions: %w", err)
		}
	}
	return wl, nil
}
