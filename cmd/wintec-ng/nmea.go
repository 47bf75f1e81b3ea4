package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"wintec-ng/internal/logging"
	"wintec-ng/internal/nmea"
	"wintec-ng/internal/tk"
	"wintec-ng/internal/udp"
)

func newNMEACommand(a *app) *cobra.Command {
	var (
		dir, output, dest string
		check             bool
		speed             float64
	)
	cmd := &cobra.Command{
		Use:   "nmea FILE...",
		Short: "Convert .tk1, .tk2 and .tk3 files into one NMEA-0183 file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := expandArgs(args)
			if check {
				return checkNMEA(cmd, files)
			}
			if dest != "" {
				return streamNMEA(cmd, files, dest, speed)
			}
			if !cmd.Flags().Changed("dir") {
				dir = a.cfg.Output.Dir
			}
			return exportNMEA(cmd, files, dir, output)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", "", "Output directory")
	f.StringVarP(&output, "output", "o", "", "Output file name (default: derived from the trackpoints)")
	f.BoolVar(&check, "check", false, "Verify the checksums of existing NMEA files instead")
	f.StringVar(&dest, "udp", "", "Send the sentences to this UDP host:port instead of writing a file")
	f.Float64Var(&speed, "speed", 1, "Pacing factor for --udp (0: as fast as possible)")
	return cmd
}

func readContainers(files []string) ([]tk.Container, error) {
	var cs []tk.Container
	for _, path := range files {
		c, err := tk.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cs = append(cs, c)
	}
	return cs, nil
}

func streamNMEA(cmd *cobra.Command, files []string, dest string, speed float64) error {
	cs, err := readContainers(files)
	if err != nil {
		return err
	}
	tracks, err := nmea.Tracks(cs)
	if err != nil {
		return err
	}

	sender, err := udp.NewSender(dest)
	if err != nil {
		return fmt.Errorf("udp sender init failed: %w", err)
	}
	defer sender.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logging.Info("nmea udp dest=%s speed=%g tracks=%d", dest, speed, len(tracks))
	n, err := nmea.Stream(ctx, sender, tracks, speed)
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d trackpoints to %s\n", n, dest)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func exportNMEA(cmd *cobra.Command, files []string, dir, output string) (err error) {
	if err := checkDir(dir); err != nil {
		return err
	}
	cs, err := readContainers(files)
	if err != nil {
		return err
	}

	name := output
	if name == "" {
		if name, err = nmea.Filename(cs); err != nil {
			return err
		}
	}
	tracks, err := nmea.Tracks(cs)
	if err != nil {
		return err
	}

	f, err := createOutput(dir, name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err := nmea.Write(f, tracks); err != nil {
		return err
	}
	logging.Info("nmea inputs=%d tracks=%d", len(cs), len(tracks))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", filepath.Join(dir, name))
	return nil
}

func checkNMEA(cmd *cobra.Command, files []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range files {
		n, err := checkNMEAFile(path)
		if err != nil {
			logging.Error("nmea check %s: %v", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: %d sentences ok\n", path, n)
	}
	if failed > 0 {
		return &errBatch{failed: failed, total: len(files)}
	}
	return nil
}

func checkNMEAFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return nmea.Check(f)
}
