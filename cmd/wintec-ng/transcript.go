package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wintec-ng/internal/acquire"
	"wintec-ng/internal/logging"
	"wintec-ng/internal/transcript"
)

func newTranscriptCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect and replay recorded serial sessions",
	}
	cmd.AddCommand(newTranscriptSummaryCommand())
	cmd.AddCommand(newTranscriptReplayCommand(a))
	return cmd
}

func newTranscriptSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE...",
		Short: "Print statistics of transcript files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range expandArgs(args) {
				if err := printTranscriptSummary(cmd, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printTranscriptSummary(cmd *cobra.Command, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	recs, err := transcript.ReadFile(path)
	if err != nil {
		return err
	}
	transcript.Summarize(recs).Print(cmd.OutOrStdout(), path)
	return nil
}

func newTranscriptReplayCommand(a *app) *cobra.Command {
	var (
		dir, output string
		speed       float64
	)
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Run a download against a recorded session and store the resulting .tk1 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dir") {
				dir = a.cfg.Output.Dir
			}
			if err := checkDir(dir); err != nil {
				return err
			}
			recs, err := transcript.ReadFile(args[0])
			if err != nil {
				return err
			}
			conn := transcript.NewReplayConn(recs)
			if speed > 0 {
				conn.Paced(speed)
			}
			ac, err := acquireConfig(a.cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			v, err := acquire.Acquire(conn, ac)
			if err != nil {
				if errors.Is(err, acquire.ErrNoLogData) {
					fmt.Fprintln(out, "No log data.")
					return nil
				}
				return fmt.Errorf("replay %s: %w", args[0], err)
			}
			if n := conn.Remaining(); n > 0 {
				logging.Warning("transcript replay unused_records=%d", n)
			}
			path, err := writeContainer(dir, output, v)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s (%d tracks, %d trackpoints)\n", path, v.TrackCount(), v.PointCount())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", "", "Output directory")
	f.StringVarP(&output, "output", "o", "", "Output file name (default: canonical name)")
	f.Float64Var(&speed, "speed", 0, "Replay in real time scaled by this factor (0: as fast as possible)")
	return cmd
}
