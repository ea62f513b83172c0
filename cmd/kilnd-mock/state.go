// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/kiln-build/kiln-exporter/lib/clock"
	"github.com/kiln-build/kiln-exporter/lib/codec"
	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
)

// historyWindow is how many completed builds the mock retains,
// mirroring the daemon's bounded history. Clients whose cursor falls
// behind the window see a replay from its oldest record.
const historyWindow = 256

// stateFile is the JSONC fixture format accepted by --state. All
// sections are optional; missing ones fall back to the built-in demo
// values. Build records take their sequence numbers from file order.
type stateFile struct {
	Info      *infoState    `json:"info"`
	Workers   []workerState `json:"workers"`
	DiskUsage *usageState   `json:"disk_usage"`
	Builds    []buildState  `json:"builds"`
}

type infoState struct {
	Version       string `json:"version"`
	Revision      string `json:"revision"`
	GoVersion     string `json:"go_version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type workerState struct {
	ID        string            `json:"id"`
	Platforms []string          `json:"platforms"`
	Labels    map[string]string `json:"labels"`
}

type usageState struct {
	SizeBytes        int64            `json:"size_bytes"`
	UsedBytes        int64            `json:"used_bytes"`
	ReclaimableBytes int64            `json:"reclaimable_bytes"`
	Records          int64            `json:"records"`
	ByType           map[string]int64 `json:"by_type"`
}

type buildState struct {
	Ref         string `json:"ref"`
	Status      string `json:"status"`
	Steps       int64  `json:"steps"`
	CachedSteps int64  `json:"cached_steps"`
}

// mockState is the mutable daemon state behind the four actions.
type mockState struct {
	clk     clock.Clock
	started time.Time

	mu         sync.Mutex
	info       kilnapi.DaemonInfo
	workers    []kilnapi.WorkerInfo
	usage      kilnapi.DiskUsage
	builds     []kilnapi.BuildRecord
	nextSeq    uint64
	failing    map[string]bool
	baseUptime int64
}

// defaultState returns the built-in demo fixture: two workers, a
// half-full cache, and a short seeded history so counters are nonzero
// from the first scrape.
func defaultState(clk clock.Clock) *mockState {
	state := &mockState{
		clk:     clk,
		started: clk.Now(),
		info: kilnapi.DaemonInfo{
			Version:   "1.9.0-mock",
			Revision:  "f3c2d10",
			GoVersion: "go1.25.6",
		},
		workers: []kilnapi.WorkerInfo{
			{ID: "builder-0", Platforms: []string{"linux/amd64", "linux/arm64"}},
			{ID: "builder-1", Platforms: []string{"linux/amd64"}, Labels: map[string]string{"gpu": "none"}},
		},
		usage: kilnapi.DiskUsage{
			SizeBytes:        64 << 30,
			UsedBytes:        23 << 30,
			ReclaimableBytes: 9 << 30,
			Records:          1874,
			ByType: map[string]int64{
				"regular":      18 << 30,
				"source.local": 3 << 30,
				"frontend":     2 << 30,
			},
		},
		failing:    make(map[string]bool),
		baseUptime: 86400,
	}
	state.seedBuilds([]buildState{
		{Ref: "refs/heads/main", Status: kilnapi.BuildSucceeded, Steps: 24, CachedSteps: 19},
		{Ref: "refs/heads/main", Status: kilnapi.BuildSucceeded, Steps: 24, CachedSteps: 24},
		{Ref: "refs/pull/118", Status: kilnapi.BuildFailed, Steps: 11, CachedSteps: 7},
	})
	return state
}

// loadState builds the mock state from a JSONC fixture, or from the
// demo fixture when path is empty.
func loadState(path string, clk clock.Clock) (*mockState, error) {
	state := defaultState(clk)
	if path == "" {
		return state, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading state fixture: %w", err)
	}

	var file stateFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if file.Info != nil {
		state.info = kilnapi.DaemonInfo{
			Version:   file.Info.Version,
			Revision:  file.Info.Revision,
			GoVersion: file.Info.GoVersion,
		}
		state.baseUptime = file.Info.UptimeSeconds
	}
	if file.Workers != nil {
		state.workers = nil
		for _, worker := range file.Workers {
			state.workers = append(state.workers, kilnapi.WorkerInfo{
				ID:        worker.ID,
				Platforms: worker.Platforms,
				Labels:    worker.Labels,
			})
		}
	}
	if file.DiskUsage != nil {
		state.usage = kilnapi.DiskUsage{
			SizeBytes:        file.DiskUsage.SizeBytes,
			UsedBytes:        file.DiskUsage.UsedBytes,
			ReclaimableBytes: file.DiskUsage.ReclaimableBytes,
			Records:          file.DiskUsage.Records,
			ByType:           file.DiskUsage.ByType,
		}
	}
	if file.Builds != nil {
		state.builds = nil
		state.nextSeq = 0
		if err := state.validateBuilds(file.Builds); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		state.seedBuilds(file.Builds)
	}

	return state, nil
}

func (s *mockState) validateBuilds(builds []buildState) error {
	for i, build := range builds {
		switch build.Status {
		case kilnapi.BuildSucceeded, kilnapi.BuildFailed, kilnapi.BuildCanceled:
		default:
			return fmt.Errorf("builds[%d]: unknown status %q", i, build.Status)
		}
	}
	return nil
}

// seedBuilds appends fixture records, assigning ascending sequence
// numbers and completion times spaced one minute apart ending now.
func (s *mockState) seedBuilds(builds []buildState) {
	now := s.clk.Now()
	for i, build := range builds {
		s.nextSeq++
		completed := now.Add(-time.Duration(len(builds)-1-i) * time.Minute)
		s.builds = append(s.builds, kilnapi.BuildRecord{
			Seq:         s.nextSeq,
			Ref:         build.Ref,
			Status:      build.Status,
			Steps:       build.Steps,
			CachedSteps: build.CachedSteps,
			CompletedAt: completed.Unix(),
		})
	}
	s.trimHistory()
}

func (s *mockState) trimHistory() {
	if len(s.builds) > historyWindow {
		s.builds = s.builds[len(s.builds)-historyWindow:]
	}
}

// setFailing marks actions whose handlers return injected errors.
func (s *mockState) setFailing(actions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, action := range actions {
		s.failing[action] = true
	}
}

func (s *mockState) injected(action string) error {
	if s.failing[action] {
		return fmt.Errorf("injected failure for %s", action)
	}
	return nil
}

// runChurn appends one synthetic completed build per period, so
// history counters move during demos and soak tests.
func (s *mockState) runChurn(ctx context.Context, period time.Duration) {
	ticker := s.clk.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.appendSyntheticBuild()
		case <-ctx.Done():
			return
		}
	}
}

func (s *mockState) appendSyntheticBuild() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	status := kilnapi.BuildSucceeded
	if s.nextSeq%4 == 0 {
		status = kilnapi.BuildFailed
	}
	steps := int64(4 + s.nextSeq%13)
	s.builds = append(s.builds, kilnapi.BuildRecord{
		Seq:         s.nextSeq,
		Ref:         fmt.Sprintf("refs/builds/%d", s.nextSeq),
		Status:      status,
		Steps:       steps,
		CachedSteps: steps / 2,
		CompletedAt: s.clk.Now().Unix(),
	})
	s.trimHistory()
}

func (s *mockState) handleInfo(_ context.Context, _ []byte) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(kilnapi.ActionInfo); err != nil {
		return nil, err
	}

	info := s.info
	info.UptimeSeconds = s.baseUptime + int64(s.clk.Now().Sub(s.started).Seconds())
	return &info, nil
}

func (s *mockState) handleListWorkers(_ context.Context, _ []byte) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(kilnapi.ActionListWorkers); err != nil {
		return nil, err
	}

	workers := make([]kilnapi.WorkerInfo, len(s.workers))
	copy(workers, s.workers)
	return &kilnapi.WorkerList{Workers: workers}, nil
}

func (s *mockState) handleDiskUsage(_ context.Context, _ []byte) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(kilnapi.ActionDiskUsage); err != nil {
		return nil, err
	}

	usage := s.usage
	return &usage, nil
}

func (s *mockState) handleBuildHistory(_ context.Context, raw []byte) (any, error) {
	var request kilnapi.Request
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid build-history request: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(kilnapi.ActionBuildHistory); err != nil {
		return nil, err
	}

	history := &kilnapi.BuildHistory{Next: request.Since}
	for _, record := range s.builds {
		if record.Seq > request.Since {
			history.Builds = append(history.Builds, record)
		}
	}
	if n := len(history.Builds); n > 0 {
		history.Next = history.Builds[n-1].Seq
	}
	return history, nil
}
