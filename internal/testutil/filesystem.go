package testutil

import (
	"fmt"
	"sync"

	"workos-go/internal/fsops"
	"workos-go/internal/restore"
)

// FaultyFilesystem wraps the real filesystem and fails selected operations,
// for exercising the orchestrator's compensating actions.
type FaultyFilesystem struct {
	mu         sync.Mutex
	real       *fsops.OSFilesystem
	moveFaults map[string]int
	MoveDirLog []string
}

func NewFaultyFilesystem() *FaultyFilesystem {
	return &FaultyFilesystem{
		real:       fsops.NewOSFilesystem(),
		moveFaults: map[string]int{},
	}
}

// FailMoveDirTo makes the next `times` MoveDir calls with exactly this
// destination fail. Later calls to the same destination succeed, so a
// compensating move back into place still works.
func (f *FaultyFilesystem) FailMoveDirTo(dst string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveFaults[dst] = times
}

func (f *FaultyFilesystem) Exists(path string) bool { return f.real.Exists(path) }

func (f *FaultyFilesystem) CopyFile(src, dst string) error { return f.real.CopyFile(src, dst) }

func (f *FaultyFilesystem) MoveDir(src, dst string) error {
	f.mu.Lock()
	f.MoveDirLog = append(f.MoveDirLog, dst)
	if remaining := f.moveFaults[dst]; remaining > 0 {
		f.moveFaults[dst] = remaining - 1
		f.mu.Unlock()
		return fmt.Errorf("injected move failure for %s", dst)
	}
	f.mu.Unlock()
	return f.real.MoveDir(src, dst)
}

func (f *FaultyFilesystem) CopyDir(src, dst string) error { return f.real.CopyDir(src, dst) }

func (f *FaultyFilesystem) RemoveAll(path string) error { return f.real.RemoveAll(path) }

var _ restore.Filesystem = (*FaultyFilesystem)(nil)
