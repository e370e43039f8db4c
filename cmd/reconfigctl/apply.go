package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dyc2021/runtime-programmable-switch/pi"
)

// applyOnce reads flags.JSONPath (if set) and flags.PlanPath from disk
// and runs one RuntimeReconfig batch against rt. A file that cannot be
// opened surfaces as the matching stable status rather than a bare Go
// error, per the taxonomy's OPEN_JSON_FILE_FAIL/OPEN_PLAN_FILE_FAIL
// codes.
func applyOnce(ctx context.Context, rt *pi.Runtime, log *zap.SugaredLogger, flags globalFlags) (pi.Status, string, int) {
	var jsonText string
	if flags.JSONPath != "" {
		data, err := os.ReadFile(flags.JSONPath)
		if err != nil {
			log.Errorw("failed to open json file", zap.String("path", flags.JSONPath), zap.Error(err))
			return pi.StatusOpenJSONFileFail, "", 0
		}
		jsonText = string(data)
	}

	planData, err := os.ReadFile(flags.PlanPath)
	if err != nil {
		log.Errorw("failed to open plan file", zap.String("path", flags.PlanPath), zap.Error(err))
		return pi.StatusOpenPlanFileFail, "", 0
	}

	target := pi.DeviceTarget{DeviceID: flags.DeviceID, PipeID: flags.PipeID}
	session := pi.NewSession()

	return rt.RuntimeReconfig(ctx, session, target, jsonText, string(planData))
}

// outputPath resolves flags.OutputPath, defaulting to "<plan>.new" per
// spec.md §6.
func outputPath(flags globalFlags) string {
	if flags.OutputPath != "" {
		return flags.OutputPath
	}
	return flags.PlanPath + ".new"
}

func writeSnapshot(flags globalFlags, snapshotText string) error {
	if snapshotText == "" {
		return nil
	}
	path := outputPath(flags)
	if err := os.WriteFile(path, []byte(snapshotText), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", path, err)
	}
	return nil
}

// watchPlan applies the plan once immediately, then re-applies it
// every time fsnotify reports the plan file changed, until ctx is
// canceled.
func watchPlan(ctx context.Context, rt *pi.Runtime, log *zap.SugaredLogger, flags globalFlags) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(flags.PlanPath); err != nil {
		return fmt.Errorf("failed to watch plan file %q: %w", flags.PlanPath, err)
	}

	reapply := func() {
		code, snapshotText, applied := applyOnce(ctx, rt, log, flags)
		if code != pi.StatusSuccess {
			log.Errorw("failed to apply plan", zap.Stringer("status", code))
			return
		}
		if err := writeSnapshot(flags, snapshotText); err != nil {
			log.Errorw("failed to write snapshot", zap.Error(err))
		}
		log.Infow("plan reapplied", zap.Stringer("status", code), zap.Int("applied", applied))
	}

	reapply()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reapply()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorw("file watcher error", zap.Error(err))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
