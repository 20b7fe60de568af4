package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	clamd "github.com/DevHatRo/clamd-sdk-go"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var infectedOnly bool

	cmd := &cobra.Command{
		Use:   "scan [PATH...]",
		Short: "Scan files, directories, or standard input",
		Long: "Scan each PATH with clamd. Directories are scanned recursively.\n" +
			"With no PATH, or with -, standard input is scanned as a single stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			var results []*clamd.ScanResult
			collect := func(r *clamd.ScanResult) {
				results = append(results, r)
			}

			if len(args) == 0 {
				args = []string{"-"}
			}
			for _, arg := range args {
				var target any = arg
				if arg == "-" {
					target = ctx.stdin
				}
				if err := client.Scan(cmd.Context(), target, collect); err != nil {
					return err
				}
			}

			summary := summarize(results)
			renderResults(ctx.stdout, results, infectedOnly)
			renderSummary(ctx.stdout, summary)

			ctx.logger.WithFields(logrus.Fields{
				"scanned":  summary.scanned,
				"infected": summary.infected,
				"errors":   summary.errors,
			}).Info("scan finished")

			switch {
			case summary.errors > 0:
				return &exitError{code: exitFailure}
			case summary.infected > 0:
				return &exitError{code: exitInfected}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&infectedOnly, "infected", "i", false, "Only print infected files")
	return cmd
}
