// Package stageanalysis reports per-stage distributions of thread costs.
//
// An Analyzer subscribes to a threadstats.Registry and groups every new
// tracker into a stage named after its thread ("decode-3" belongs to
// "decode"). Analyze computes, per stage, the p50/p90/p99/max of each
// thread's processing time per request using an HDR histogram.
package stageanalysis
