package driver

import (
	"fmt"
	"os"
	"runtime/pprof"
	"sort"

	"github.com/google/pprof/profile"
)

// startProfile begins a CPU profile written to path and returns a stop
// function that finalizes the file and prints a short top-N
// self-time report, using github.com/google/pprof — the same library
// the Go toolchain itself uses to inspect profiles it collects.
func startProfile(path string) (stop func() error, err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return err
		}
		return reportProfile(path)
	}, nil
}

// reportProfile re-opens the just-written profile and prints the top
// functions by flat (self) sample count to stderr.
func reportProfile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	prof, err := profile.Parse(f)
	if err != nil {
		return fmt.Errorf("parse profile: %w", err)
	}
	if len(prof.SampleType) == 0 || len(prof.Sample) == 0 {
		fmt.Fprintln(os.Stderr, "profile: no samples collected")
		return nil
	}

	type flatEntry struct {
		name string
		flat int64
	}
	totals := make(map[string]int64)
	for _, s := range prof.Sample {
		if len(s.Value) == 0 || len(s.Location) == 0 {
			continue
		}
		loc := s.Location[0]
		if len(loc.Line) == 0 || loc.Line[0].Function == nil {
			continue
		}
		totals[loc.Line[0].Function.Name] += s.Value[0]
	}

	entries := make([]flatEntry, 0, len(totals))
	for name, flat := range totals {
		entries = append(entries, flatEntry{name, flat})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].flat > entries[j].flat })

	fmt.Fprintln(os.Stderr, "top self-time samples:")
	for i, e := range entries {
		if i >= 10 {
			break
		}
		fmt.Fprintf(os.Stderr, "  %8d  %s\n", e.flat, e.name)
	}
	return nil
}
