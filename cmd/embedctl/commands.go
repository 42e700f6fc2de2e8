package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/proofwall/proofwall-embed-go/internal/embed"
	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/render"
	"github.com/proofwall/proofwall-embed-go/internal/snippet"
	"github.com/proofwall/proofwall-embed-go/internal/viability"
)

func newRenderCmd(a *app) *cobra.Command {
	var configPath, recordsPath string
	var compact bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a configuration over a set of records and print the presentation as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.validator, configPath)
			if err != nil {
				return err
			}
			records, err := loadRecords(a.validator, recordsPath)
			if err != nil {
				return err
			}

			svc := embed.NewService(embed.Options{Logger: a.logger})
			result := svc.Preview(context.Background(), cfg, records)
			a.logger.Debug("rendered", "strategy", result.Presentation.Strategy, "records", len(records), "warnings", len(result.Warnings))

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "embed configuration file (.json, .yaml)")
	cmd.Flags().StringVar(&recordsPath, "records", "", "testimonial records file (.json, .yaml)")
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on a single line")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var configPath, recordsPath string
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report viability warnings of a configuration for a set of records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.validator, configPath)
			if err != nil {
				return err
			}
			records, err := loadRecords(a.validator, recordsPath)
			if err != nil {
				return err
			}

			style := cfg.Style()
			strategy := render.SelectStrategy(cfg.EmbedType, style.Preset)
			warnings := viability.Check(cfg.EmbedType, style, records)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "strategy: %s\n", strategy.ID)
			if len(warnings) == 0 {
				fmt.Fprintln(out, "no warnings")
				return nil
			}
			for _, w := range warnings {
				fmt.Fprintln(out, w.String())
			}
			if strict && viability.HasHard(warnings) {
				return fmt.Errorf("%s has hard warnings", configPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "embed configuration file (.json, .yaml)")
	cmd.Flags().StringVar(&recordsPath, "records", "", "testimonial records file (.json, .yaml)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when a hard warning is reported")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newSnippetsCmd() *cobra.Command {
	var id, baseURL, format string

	cmd := &cobra.Command{
		Use:   "snippets",
		Short: "Print the distribution snippets of an embed id",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := snippet.NewEmitter(baseURL).Generate(id)
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "script":
				fmt.Fprintln(out, s.Script)
			case "iframe":
				fmt.Fprintln(out, s.IFrame)
			case "component":
				fmt.Fprintln(out, s.ComponentRef)
			case "all":
				fmt.Fprintf(out, "%s\n\n%s\n\n%s\n", s.Script, s.IFrame, s.ComponentRef)
			default:
				return fmt.Errorf("unknown format %q (want script, iframe, component or all)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "embed id; empty prints the placeholder")
	cmd.Flags().StringVar(&baseURL, "base-url", snippet.DefaultBaseURL, "public distribution host")
	cmd.Flags().StringVar(&format, "format", "all", "script, iframe, component or all")
	return cmd
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List embed types and their presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNAME\tPRESETS\tSTATUS")
			for _, info := range model.Catalogue() {
				presets := make([]string, 0, len(info.Presets))
				for _, p := range info.Presets {
					presets = append(presets, string(p.Preset))
				}
				status := "available"
				if info.ComingSoon {
					status = "coming soon"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Type, info.DisplayName, strings.Join(presets, ","), status)
			}
			return tw.Flush()
		},
	}
}
