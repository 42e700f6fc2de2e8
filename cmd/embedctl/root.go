package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/proofwall/proofwall-embed-go/internal/schema"
)

// app carries the state shared by all subcommands.
type app struct {
	verbose   bool
	logger    *slog.Logger
	validator *schema.Validator
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "embedctl",
		Short:        "Render and inspect testimonial embed configurations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			v, err := schema.NewValidator()
			if err != nil {
				return err
			}
			a.validator = v
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newRenderCmd(a),
		newCheckCmd(a),
		newSnippetsCmd(),
		newTypesCmd(),
	)
	return root
}
