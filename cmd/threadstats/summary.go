package main

import (
	"strconv"
	"time"

	"mercator-hq/threadstats/pkg/stageanalysis"
	"mercator-hq/threadstats/pkg/threadstats"
)

// runSummary is printed when the run command exits.
type runSummary struct {
	Trackers  int     `json:"trackers"`
	Requests  float64 `json:"requests"`
	Submitted int64   `json:"submitted"`
	Dropped   int64   `json:"dropped"`

	// Seconds per request across all threads.
	ExecutingCPUPerRequest   float64 `json:"executing_cpu_per_request"`
	ExecutingWallPerRequest  float64 `json:"executing_wall_per_request"`
	ProcessingCPUPerRequest  float64 `json:"processing_cpu_per_request"`
	ProcessingWallPerRequest float64 `json:"processing_wall_per_request"`

	Stages []stageSummary `json:"stages"`
}

type stageSummary struct {
	Stage         string `json:"stage"`
	Threads       int    `json:"threads"`
	ActiveThreads int    `json:"active_threads"`
	Requests      uint64 `json:"requests"`
	WallP50       string `json:"wall_per_request_p50"`
	WallP99       string `json:"wall_per_request_p99"`
	WallMax       string `json:"wall_per_request_max"`
	CPUP50        string `json:"cpu_per_request_p50"`
}

func buildSummary(reg *threadstats.Registry, analyzer *stageanalysis.Analyzer, submitted, dropped int64) runSummary {
	averages := reg.Averages()
	s := runSummary{
		Trackers:                 reg.TrackerCount(),
		Requests:                 reg.RequestTotal(),
		Submitted:                submitted,
		Dropped:                  dropped,
		ExecutingCPUPerRequest:   averages[threadstats.ExecutingCPU],
		ExecutingWallPerRequest:  averages[threadstats.ExecutingWall],
		ProcessingCPUPerRequest:  averages[threadstats.ProcessingCPU],
		ProcessingWallPerRequest: averages[threadstats.ProcessingWall],
	}

	for _, r := range analyzer.Analyze() {
		s.Stages = append(s.Stages, stageSummary{
			Stage:         r.Stage,
			Threads:       r.Threads,
			ActiveThreads: r.ActiveThreads,
			Requests:      r.Requests,
			WallP50:       r.ProcessingWallPerRequest.P50.String(),
			WallP99:       r.ProcessingWallPerRequest.P99.String(),
			WallMax:       r.ProcessingWallPerRequest.Max.String(),
			CPUP50:        r.ProcessingCPUPerRequest.P50.String(),
		})
	}
	return s
}

// Header implements cli.Table.
func (s runSummary) Header() []string {
	return []string{"stage", "threads", "active", "requests", "wall_p50", "wall_p99", "wall_max", "cpu_p50"}
}

// Rows implements cli.Table. The last row holds the cross-thread averages.
func (s runSummary) Rows() [][]string {
	rows := make([][]string, 0, len(s.Stages)+1)
	for _, st := range s.Stages {
		rows = append(rows, []string{
			st.Stage,
			strconv.Itoa(st.Threads),
			strconv.Itoa(st.ActiveThreads),
			strconv.FormatUint(st.Requests, 10),
			st.WallP50,
			st.WallP99,
			st.WallMax,
			st.CPUP50,
		})
	}
	rows = append(rows, []string{
		"(all, mean)",
		strconv.Itoa(s.Trackers),
		"",
		strconv.FormatFloat(s.Requests, 'f', 0, 64),
		perRequest(s.ProcessingWallPerRequest).String(),
		"",
		"",
		perRequest(s.ProcessingCPUPerRequest).String(),
	})
	return rows
}

func perRequest(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Microsecond)
}
