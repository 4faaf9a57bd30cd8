package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chzchzchz/kctrl/device"
)

// monitor starts one reader per path. Paths that fail to open are logged and
// skipped; a device that errors later stops without affecting the others.
func monitor(ctx context.Context, paths []string, grab bool, h device.Handler, log zerolog.Logger) *sync.WaitGroup {
	var wg sync.WaitGroup
	opened := 0
	for _, path := range paths {
		src, err := device.Open(path, grab, log)
		if err != nil {
			log.Error().Err(err).Str("device", path).Msg("failed to open input device")
			continue
		}
		opened++
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx, h); err != nil {
				log.Error().Err(err).Str("device", path).Msg("lost device")
			}
		}()
	}
	if opened == 0 {
		log.Warn().Int("configured", len(paths)).Msg("no input device could be opened")
	}
	return &wg
}
