package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wintec-ng/internal/acquire"
	"wintec-ng/internal/config"
	"wintec-ng/internal/logging"
	"wintec-ng/internal/serial"
	"wintec-ng/internal/tk"
	"wintec-ng/internal/transcript"
)

func acquireConfig(cfg config.Config) (acquire.Config, error) {
	ac := acquire.DefaultConfig()
	ac.Password = cfg.Device.Password
	ac.BlockSize = cfg.Transfer.BlockSize
	ac.LoginAttempts = cfg.Transfer.LoginAttempts
	ac.BlockRetries = cfg.Transfer.BlockRetries
	if cfg.Device.LogVersion != "auto" {
		v, err := tk.ParseLogVersion(cfg.Device.LogVersion)
		if err != nil {
			return acquire.Config{}, err
		}
		ac.LogVersion = v
	}
	return ac, nil
}

func newReadlogCommand(a *app) *cobra.Command {
	var (
		device, password, dir, output, transcriptPath, logVersion string
		baud                                                      int
		del                                                       bool
	)
	cmd := &cobra.Command{
		Use:   "readlog",
		Short: "Download the track log from the device into a .tk1 file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("device") {
				cfg.Serial.Device = device
			}
			if flags.Changed("baud") {
				cfg.Serial.Baud = baud
			}
			if flags.Changed("password") {
				cfg.Device.Password = password
			}
			if flags.Changed("log-version") {
				cfg.Device.LogVersion = logVersion
			}
			if flags.Changed("dir") {
				cfg.Output.Dir = dir
			}
			if flags.Changed("delete") {
				cfg.Device.DeleteAfterRead = del
			}
			if flags.Changed("transcript") {
				cfg.Log.Transcript = transcriptPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return readlog(cmd, cfg, output)
		},
	}
	f := cmd.Flags()
	f.StringVar(&device, "device", "", "Serial device of the logger")
	f.IntVar(&baud, "baud", 0, "Serial baud rate")
	f.StringVar(&password, "password", "", "Device password")
	f.StringVar(&logVersion, "log-version", "", "Force log version 1.0 or 2.0 (default: detect)")
	f.StringVarP(&dir, "dir", "d", "", "Output directory")
	f.StringVarP(&output, "output", "o", "", "Output file name (default: canonical name)")
	f.BoolVar(&del, "delete", false, "Delete the device log after it was saved")
	f.StringVar(&transcriptPath, "transcript", "", "Record the serial session to this file")
	return cmd
}

func readlog(cmd *cobra.Command, cfg config.Config, output string) (err error) {
	out := cmd.OutOrStdout()
	if err := checkDir(cfg.Output.Dir); err != nil {
		return err
	}
	if output != "" {
		if _, err := os.Stat(filepath.Join(cfg.Output.Dir, output)); err == nil {
			return fmt.Errorf("output file %s already exists", output)
		}
	}
	ac, err := acquireConfig(cfg)
	if err != nil {
		return err
	}

	port, err := serial.Open(serial.Options{
		Path:        cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout,
	})
	if err != nil {
		return err
	}
	defer port.Close()
	logging.Info("readlog serial=%s baud=%d", port.Path(), cfg.Serial.Baud)

	var conn acquire.Conn = port
	if cfg.Log.Transcript != "" {
		w, err := transcript.CreateWriter(cfg.Log.Transcript)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logging.Warning("readlog transcript close failed: %v", cerr)
			}
		}()
		conn = transcript.Tee(port, w)
		logging.Info("readlog transcript=%s", cfg.Log.Transcript)
	}

	s := acquire.NewSession(conn, ac)
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logging.Warning("readlog leaving command mode failed: %v", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	if err := s.Login(); err != nil {
		return err
	}
	v, err := s.Download()
	if errors.Is(err, acquire.ErrNoLogData) {
		fmt.Fprintln(out, "No log data.")
		return nil
	}
	if err != nil {
		return err
	}

	path, err := writeContainer(cfg.Output.Dir, output, v)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%d tracks, %d trackpoints)\n", path, v.TrackCount(), v.PointCount())

	if cfg.Device.DeleteAfterRead {
		if err := s.DeleteLog(); err != nil {
			return fmt.Errorf("delete device log: %w", err)
		}
		fmt.Fprintln(out, "Device log deleted.")
	}
	return nil
}
