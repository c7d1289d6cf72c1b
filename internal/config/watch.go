package config

import (
	"context"
	"log/slog"
	"sort"

	"github.com/fsnotify/fsnotify"
)

// Diff lists the phenomena and sources that appeared or disappeared between
// two configs, by ID. Entries whose ID survives are not listed even if their
// values changed.
type Diff struct {
	AddedPhenomena   []string
	RemovedPhenomena []string
	AddedSources     []string
	RemovedSources   []string
}

// Empty reports whether no phenomenon or source was added or removed.
func (d Diff) Empty() bool {
	return len(d.AddedPhenomena)+len(d.RemovedPhenomena)+len(d.AddedSources)+len(d.RemovedSources) == 0
}

// Compare returns the Diff from prev to next. A nil prev counts as empty.
func Compare(prev, next *Config) Diff {
	if prev == nil {
		prev = &Config{}
	}
	var d Diff
	d.AddedPhenomena, d.RemovedPhenomena = diffIDs(phenomenonIDs(prev), phenomenonIDs(next))
	d.AddedSources, d.RemovedSources = diffIDs(sourceIDs(prev), sourceIDs(next))
	return d
}

func phenomenonIDs(c *Config) map[string]bool {
	ids := make(map[string]bool, len(c.Phenomena))
	for _, ph := range c.Phenomena {
		ids[ph.ID] = true
	}
	return ids
}

func sourceIDs(c *Config) map[string]bool {
	ids := make(map[string]bool, len(c.Sources))
	for _, src := range c.Sources {
		ids[src.ID] = true
	}
	return ids
}

// diffIDs returns the sorted IDs only in next and only in prev.
func diffIDs(prev, next map[string]bool) (added, removed []string) {
	for id := range next {
		if !prev[id] {
			added = append(added, id)
		}
	}
	for id := range prev {
		if !next[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// Watch monitors path and, each time the file is written, calls onChange with
// the reloaded Config and its Diff against the previously active one. It runs
// until ctx is cancelled.
//
// A reload that fails validation (a phenomenon out of range, say) is logged
// and ignored; the previous config stays active and onChange is not called.
func Watch(ctx context.Context, path string, onChange func(*Config, Diff)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	active, err := Load(path)
	if err != nil {
		slog.Warn("config: initial load failed, diffing against empty config",
			"path", path, "err", err)
	}
	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}

			d := Compare(active, cfg)
			slog.Info("config: reloaded",
				"path", path,
				"threshold", cfg.Threshold,
				"phenomena", len(cfg.Phenomena),
				"sources", len(cfg.Sources),
				"phenomena_added", d.AddedPhenomena,
				"phenomena_removed", d.RemovedPhenomena,
				"sources_added", d.AddedSources,
				"sources_removed", d.RemovedSources,
			)
			active = cfg
			onChange(cfg, d)

			// Atomic saves replace the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
