package service

import (
	"context"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// invalidateReportImages drops cached charts touched by a write. Failures are logged, not returned.
func invalidateReportImages(cache domain.ReportImageCache, userID int64, year, month int) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(context.Background(), userID, year, month); err != nil {
		log.Warn().Err(err).
			Int64("user_id", userID).
			Int("year", year).
			Int("month", month).
			Msg("Failed to invalidate report images")
	}
}
