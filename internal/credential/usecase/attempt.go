package usecase

import (
	"context"
	"log/slog"
	"time"
)

func (s *Usecase) attemptLimit() (int64, time.Duration) {
	window := s.cfg.GetSecond("modules.credential.attempt_window_seconds")
	if window <= 0 {
		window = 15 * time.Minute
	}
	return s.cfg.GetInt64("modules.credential.max_failed_attempts"), window
}

// reserveAttempt counts the attempt before any verification work, so the
// counter value decides admission and parallel guesses cannot slip past the
// limit together. Counter failures are logged and let the attempt through.
func (s *Usecase) reserveAttempt(ctx context.Context, companyID, externalUserID string) error {
	limit, window := s.attemptLimit()
	if limit <= 0 {
		return nil
	}

	n, err := s.repoCache.IncrFailedAttempts(ctx, companyID, externalUserID, window)
	if err != nil {
		slog.WarnContext(ctx, "failed to cache increment failed attempts", "company_id", companyID, "external_user_id", externalUserID, "error", err)
		return nil
	}
	if n > limit {
		slog.WarnContext(ctx, "verification blocked by failed attempts", "company_id", companyID, "external_user_id", externalUserID, "attempts", n)
		return errTooManyAttempts
	}

	return nil
}

// settleAttempt clears the counter after a successful verification. Any
// other outcome keeps the reservation as a failure.
func (s *Usecase) settleAttempt(ctx context.Context, companyID, externalUserID string, ok bool) {
	limit, _ := s.attemptLimit()
	if limit <= 0 || !ok {
		return
	}

	if err := s.repoCache.ResetFailedAttempts(ctx, companyID, externalUserID); err != nil {
		slog.WarnContext(ctx, "failed to cache reset failed attempts", "company_id", companyID, "external_user_id", externalUserID, "error", err)
	}
}
