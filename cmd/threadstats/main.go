// threadstats runs a tracked worker pool and reports how its threads spend
// their time.
//
// Every worker is measured by a per-thread tracker: CPU and wall-clock time
// while alive, the same pair while processing jobs, and the number of items
// processed. Cross-thread averages per item are published to a Prometheus
// registry and logged on a schedule.
//
// Usage:
//
//	# Run with built-in defaults until Ctrl+C
//	threadstats run
//
//	# Run a configured pool for one minute and print a JSON summary
//	threadstats run --config threadstats.yaml --duration 1m --output json
//
//	# Validate configuration only
//	threadstats run --config threadstats.yaml --dry-run
//
//	# Show version information
//	threadstats version
package main

func main() {
	Execute()
}
