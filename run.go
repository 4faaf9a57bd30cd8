package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chzchzchz/kctrl/action"
	"github.com/chzchzchz/kctrl/config"
	"github.com/chzchzchz/kctrl/device"
	"github.com/chzchzchz/kctrl/gesture"
	klog "github.com/chzchzchz/kctrl/log"
	"github.com/chzchzchz/kctrl/supervise"
)

// run starts the daemon and blocks until ctx is cancelled. Errors returned
// are fatal startup conditions.
func run(ctx context.Context, o options, log zerolog.Logger) error {
	klog.SetEnabled(false, o.verbose)

	if o.lockPath != "" {
		lock, err := supervise.AcquireLock(o.lockPath)
		if err != nil {
			return err
		}
		defer lock.Release()
	}
	if o.wakeLock != "" {
		wl := supervise.NewWakeLock(o.wakeLock)
		if err := wl.Acquire(); err != nil {
			return fmt.Errorf("acquire wake lock: %w", err)
		}
		defer func() {
			if err := wl.Release(); err != nil {
				log.Warn().Err(err).Msg("release wake lock")
			}
		}()
	}
	tune(o, log)

	snap, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	applyConfig(snap, nil, o.verbose, log)
	log.Info().Str("config", o.configPath).Msg("kctrl starting")

	spec, err := snap.Device()
	if err != nil {
		return err
	}
	log.Info().Str("device", spec).Msg("device config")
	paths, err := device.NewResolver(log).Resolve(spec)
	if err != nil {
		return err
	}
	log.Info().Strs("paths", paths).Msg("devices to monitor")

	dispatcher := action.NewDispatcher(config.Loader{Path: o.configPath}, action.NewShellExecutor(log), log)
	classifier := gesture.NewClassifier(snap.Thresholds, dispatcher, log)
	dispatcher.OnReload = func(s *config.Snapshot) { applyConfig(s, classifier, o.verbose, log) }

	if o.watch {
		go func() {
			err := config.Watch(ctx, o.configPath, log, func(s *config.Snapshot) {
				applyConfig(s, classifier, o.verbose, log)
			})
			if err != nil {
				log.Warn().Err(err).Msg("config watch disabled")
			}
		}()
	}

	wg := monitor(ctx, paths, snap.Grab, classifier, log)
	<-ctx.Done()
	log.Info().Msg("shutting down")
	wg.Wait()
	classifier.Reset()
	dispatcher.Close()
	log.Info().Msg("kctrl stopped")
	return nil
}

func tune(o options, log zerolog.Logger) {
	if o.nice != 0 {
		if err := supervise.Renice(o.nice); err != nil {
			log.Warn().Err(err).Int("nice", o.nice).Msg("failed to set CPU priority")
		} else {
			log.Info().Int("nice", o.nice).Msg("CPU priority set")
		}
	}
	if o.cpu >= 0 {
		if err := supervise.PinCPU(o.cpu); err != nil {
			log.Warn().Err(err).Int("cpu", o.cpu).Msg("failed to set CPU affinity")
		} else {
			log.Info().Int("cpu", o.cpu).Msg("CPU affinity set")
		}
	}
}
