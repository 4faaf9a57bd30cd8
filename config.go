package main

import (
	"github.com/rs/zerolog"

	"github.com/chzchzchz/kctrl/config"
	"github.com/chzchzchz/kctrl/gesture"
	klog "github.com/chzchzchz/kctrl/log"
)

// applyConfig pushes the runtime-tunable parts of a fresh snapshot into the
// running daemon. c may be nil before the classifier exists.
func applyConfig(s *config.Snapshot, c *gesture.Classifier, verbose bool, log zerolog.Logger) {
	klog.SetEnabled(s.EnableLog, verbose)
	th := s.Thresholds
	if err := th.Validate(); err != nil {
		log.Warn().Err(err).Msg("suspicious thresholds")
	}
	if len(s.Skipped) > 0 {
		log.Debug().Ints("lines", s.Skipped).Msg("skipped config lines")
	}
	if c != nil {
		if c.Thresholds() == th {
			return
		}
		c.SetThresholds(th)
	}
	log.Info().
		Dur("click", th.Click).
		Dur("short", th.ShortPress).
		Dur("long", th.LongPress).
		Dur("double", th.DoubleClick).
		Bool("log", s.EnableLog).
		Int("bindings", s.Bindings()).
		Msg("config loaded")
}
