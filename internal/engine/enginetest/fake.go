// Package enginetest provides in-memory Engine and Handle fakes for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/sitepack/internal/engine"
)

// FakeEngine records CreateBundle calls and hands out FakeHandles.
type FakeEngine struct {
	mu sync.Mutex

	// Warnings are replayed through OnWarn at CreateBundle time.
	Warnings []engine.WarningRecord

	// CreateErr, when set, fails CreateBundle.
	CreateErr error

	// Files seeds every generated output.
	Files []engine.OutputFile

	Handles []*FakeHandle
	Inputs  []engine.InputOptions
}

func (f *FakeEngine) CreateBundle(_ context.Context, opts engine.InputOptions) (engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Inputs = append(f.Inputs, opts)

	for _, rec := range f.Warnings {
		if opts.OnWarn == nil {
			continue
		}
		if err := opts.OnWarn(rec); err != nil {
			return nil, err
		}
	}
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	h := &FakeHandle{files: f.Files}
	f.Handles = append(f.Handles, h)
	return h, nil
}

// FakeHandle counts generations and closes.
type FakeHandle struct {
	mu sync.Mutex

	files []engine.OutputFile

	// GenerateErr, when set, fails Generate and Write.
	GenerateErr error

	Generated  []engine.OutputOptions
	CloseCount int
}

func (h *FakeHandle) Generate(_ context.Context, opts engine.OutputOptions) (*engine.Output, error) {
	return h.produce(opts)
}

func (h *FakeHandle) Write(_ context.Context, opts engine.OutputOptions) (*engine.Output, error) {
	return h.produce(opts)
}

func (h *FakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CloseCount++
	return nil
}

// Closes returns how many times Close has been called.
func (h *FakeHandle) Closes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.CloseCount
}

func (h *FakeHandle) produce(opts engine.OutputOptions) (*engine.Output, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.CloseCount > 0 {
		return nil, fmt.Errorf("fake handle is closed")
	}
	if h.GenerateErr != nil {
		return nil, h.GenerateErr
	}
	h.Generated = append(h.Generated, opts)
	out := &engine.Output{Format: opts.Format}
	out.Files = append(out.Files, h.files...)
	return out, nil
}
