// Package reporter periodically logs thread statistics.
//
// The Scheduler runs on a robfig/cron schedule taken from
// telemetry.report.schedule. Reports are skipped until collection is
// active. Log-only metrics are only ever evaluated here, so disabling the
// schedule leaves them unread.
package reporter
