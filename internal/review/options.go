package review

import (
	"log/slog"
	"time"

	"github.com/sanhsing/beidou-edu-server/internal/config"
)

// OptionsFromConfig maps the review configuration onto ServiceOptions.
func OptionsFromConfig(cfg config.ReviewConfig, logger *slog.Logger) (ServiceOptions, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return ServiceOptions{}, err
	}
	return ServiceOptions{
		Scheduler: Scheduler{
			DefaultEasiness:     cfg.DefaultEasiness,
			MasteryIntervalDays: cfg.MasteryIntervalDays,
			MaxIntervalDays:     cfg.MaxIntervalDays,
		},
		EnrollMode:      mode,
		MaxAttempts:     cfg.MaxAttempts,
		RetryDelay:      time.Duration(cfg.RetryDelayMS) * time.Millisecond,
		DefaultDueLimit: cfg.DefaultDueLimit,
		MaxDueLimit:     cfg.MaxDueLimit,
		Logger:          logger,
	}, nil
}
