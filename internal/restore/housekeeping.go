package restore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Retention policy for safety copies and scratch directories. A safety copy
// survives if it is among the most recent keepSafetyCount copies OR younger
// than safetyMaxAge; it is deleted only when it fails both. Scratch
// directories are kept for scratchMaxAge so a restore still in flight is
// never swept out from under itself.
const (
	keepSafetyCount = 5
	safetyMaxAge    = 14 * 24 * time.Hour
	scratchMaxAge   = 24 * time.Hour
)

// HousekeepReport counts what a retention sweep removed.
type HousekeepReport struct {
	RemovedRecordCopies     int
	RemovedAttachmentCopies int
	RemovedScratchDirs      int
}

// Housekeep reclaims old safety copies and orphaned scratch directories.
// It runs independently of any restore, typically at process startup, and
// never touches the live record store or attachment directory.
func (s *Service) Housekeep() (*HousekeepReport, error) {
	report := &HousekeepReport{}
	now := s.clock.Now()

	removed, err := s.sweepSafetyCopies(s.records.Path()+".*"+safetySuffix, now)
	if err != nil {
		return report, fmt.Errorf("sweeping record-store safety copies: %w", err)
	}
	report.RemovedRecordCopies = removed

	removed, err = s.sweepSafetyCopies(s.attachmentsDir+".*"+safetySuffix, now)
	if err != nil {
		return report, fmt.Errorf("sweeping attachment safety copies: %w", err)
	}
	report.RemovedAttachmentCopies = removed

	removed, err = s.sweepScratch(now)
	if err != nil {
		return report, fmt.Errorf("sweeping scratch directories: %w", err)
	}
	report.RemovedScratchDirs = removed

	return report, nil
}

type sweepCandidate struct {
	path    string
	modTime time.Time
}

// sweepSafetyCopies applies the keep-by-count-or-age rule to everything
// matching pattern. Items that vanish between glob and stat are skipped.
func (s *Service) sweepSafetyCopies(pattern string, now time.Time) (int, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("globbing %s: %w", pattern, err)
	}

	var candidates []sweepCandidate
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		candidates = append(candidates, sweepCandidate{path: path, modTime: info.ModTime()})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	removed := 0
	for i, c := range candidates {
		if i < keepSafetyCount {
			continue
		}
		if now.Sub(c.modTime) < safetyMaxAge {
			continue
		}
		if err := s.fs.RemoveAll(c.path); err != nil {
			s.logger.Warn("failed to remove safety copy", "path", c.path, "error", err)
			continue
		}
		s.logger.Info("removed safety copy", "path", c.path)
		removed++
	}
	return removed, nil
}

// sweepScratch removes scratch extraction directories older than the
// staleness threshold. These only exist after a crashed restore; a live
// restore's scratch directory is always younger than the threshold.
func (s *Service) sweepScratch(now time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.scratchRoot, scratchPrefix+"*"))
	if err != nil {
		return 0, fmt.Errorf("globbing scratch root: %w", err)
	}

	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < scratchMaxAge {
			continue
		}
		if err := s.fs.RemoveAll(path); err != nil {
			s.logger.Warn("failed to remove scratch directory", "path", path, "error", err)
			continue
		}
		s.logger.Info("removed stale scratch directory", "path", path)
		removed++
	}
	return removed, nil
}
