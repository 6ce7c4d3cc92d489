package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/sage"
)

const blankTopicWarning = "Please enter a research topic."

type reportFlags struct {
	topic  string
	format string
}

// reportOutput is the machine-readable form of a finished run.
type reportOutput struct {
	RunID             string                  `json:"run_id" yaml:"run_id"`
	Topic             string                  `json:"topic" yaml:"topic"`
	Analysts          []sage.Analyst          `json:"analysts" yaml:"analysts"`
	Report            string                  `json:"report" yaml:"report"`
	SkippedInterviews []sage.InterviewFailure `json:"skipped_interviews,omitempty" yaml:"skipped_interviews,omitempty"`
}

func newReportOutput(s sage.State) reportOutput {
	return reportOutput{
		RunID:             s.RunID,
		Topic:             s.Topic,
		Analysts:          s.Analysts,
		Report:            s.Final,
		SkippedInterviews: s.Failures,
	}
}

func newReportCmd(a *app) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "report [topic...]",
		Short: "Research a topic and print the report",
		Long: "Runs the full workflow for a topic: analyst creation, one interview per\n" +
			"analyst, report body, introduction and conclusion.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, a, &flags, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.topic, "topic", "", "research topic (alternative to positional words)")
	f.StringVarP(&flags.format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func runReport(cmd *cobra.Command, a *app, flags *reportFlags, args []string) error {
	topic := strings.TrimSpace(flags.topic)
	if topic == "" {
		topic = strings.TrimSpace(strings.Join(args, " "))
	}
	if topic == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), blankTopicWarning)
		return nil
	}

	switch flags.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q", flags.format)
	}

	if err := a.setup(); err != nil {
		return err
	}
	runner, err := a.newRunner(a.cfg, a.logger, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	state, err := runner.Run(ctx, topic)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}
	for _, f := range state.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped interview with %s: %s\n", f.Analyst.Name, f.Error)
	}
	return writeReport(cmd.OutOrStdout(), flags.format, state)
}

func writeReport(w io.Writer, format string, state sage.State) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newReportOutput(state))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newReportOutput(state)); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, state.Final)
		return err
	}
}
