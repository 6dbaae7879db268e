/*
Package cli provides command-line helpers for the threadstats command.

Output Formatting:

Results are printed as an aligned table, JSON or CSV:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, summary)

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(expectedJobs)
	progress.Update(submitted)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
