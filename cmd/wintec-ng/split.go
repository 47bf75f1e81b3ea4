package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wintec-ng/internal/config"
	"wintec-ng/internal/geo"
	"wintec-ng/internal/logging"
	"wintec-ng/internal/tk"
)

type splitOptions struct {
	dir      string
	tk2Dir   string
	tk3Dir   string
	timezone string
	comment  string
	autoTZ   bool
	onlyTK2  bool
	onlyTK3  bool
}

func newSplitCommand(a *app) *cobra.Command {
	var o splitOptions
	cmd := &cobra.Command{
		Use:   "split FILE.tk1...",
		Short: "Split .tk1 logs into one .tk2 file per track and one .tk3 file per track with push points",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("dir") {
				cfg.Output.Dir, cfg.Output.TK2Dir, cfg.Output.TK3Dir = o.dir, o.dir, o.dir
			}
			if flags.Changed("d2") {
				cfg.Output.TK2Dir = o.tk2Dir
			}
			if flags.Changed("d3") {
				cfg.Output.TK3Dir = o.tk3Dir
			}
			if flags.Changed("timezone") {
				cfg.Split.Timezone = o.timezone
			}
			if flags.Changed("comment") {
				cfg.Split.Comment = o.comment
			}
			if flags.Changed("autotz") {
				cfg.Split.AutoTimezone = o.autoTZ
			}
			// -2 and -3 select output types; neither means both.
			if o.onlyTK2 || o.onlyTK3 {
				cfg.Split.TK2 = &o.onlyTK2
				cfg.Split.TK3 = &o.onlyTK3
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return split(cmd, cfg, expandArgs(args))
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&o.onlyTK2, "tk2", "2", false, "Create .tk2 files")
	f.BoolVarP(&o.onlyTK3, "tk3", "3", false, "Create .tk3 files")
	f.StringVarP(&o.dir, "dir", "d", "", "Output directory for .tk2 and .tk3 files")
	f.StringVar(&o.tk2Dir, "d2", "", "Output directory for .tk2 files")
	f.StringVar(&o.tk3Dir, "d3", "", "Output directory for .tk3 files")
	f.StringVarP(&o.timezone, "timezone", "t", "", "Timezone as +hh:mm")
	f.StringVarP(&o.comment, "comment", "c", "", "Comment stored in every output file")
	f.BoolVar(&o.autoTZ, "autotz", false, "Derive the timezone from the first trackpoint of each track")
	return cmd
}

// offsetFunc returns the timezone policy of cfg.
func offsetFunc(cfg config.SplitConfig) (func(tk.Track) tk.Offset, error) {
	if cfg.AutoTimezone {
		return func(tr tk.Track) tk.Offset {
			p := tr.First()
			return tk.Offset(geo.DetermineOffset(p.Lat, p.Lon))
		}, nil
	}
	off := tk.Offset(0)
	if cfg.Timezone != "" {
		var err error
		if off, err = tk.ParseOffset(cfg.Timezone); err != nil {
			return nil, err
		}
	}
	return func(tk.Track) tk.Offset { return off }, nil
}

func split(cmd *cobra.Command, cfg config.Config, files []string) error {
	out := cmd.OutOrStdout()
	if *cfg.Split.TK2 {
		if err := checkDir(cfg.Output.TK2Dir); err != nil {
			return err
		}
	}
	if *cfg.Split.TK3 {
		if err := checkDir(cfg.Output.TK3Dir); err != nil {
			return err
		}
	}
	offsetFor, err := offsetFunc(cfg.Split)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range files {
		if err := splitFile(out, cfg, path, offsetFor); err != nil {
			logging.Error("split %s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		return &errBatch{failed: failed, total: len(files)}
	}
	return nil
}

func splitFile(out io.Writer, cfg config.Config, path string, offsetFor func(tk.Track) tk.Offset) error {
	fmt.Fprintf(out, "Reading %s\n", path)
	c, err := tk.ReadFile(path)
	if err != nil {
		return err
	}
	v1, ok := c.(*tk.V1)
	if !ok {
		return fmt.Errorf("%s is not a .tk1 file", c.Kind())
	}
	fmt.Fprintf(out, "Track count: %d\n", v1.TrackCount())

	tk2s, tk3s, err := tk.SplitFunc(v1, cfg.Split.Comment, offsetFor)
	if err != nil {
		return err
	}
	var outputs []planned
	if *cfg.Split.TK2 {
		for _, v := range tk2s {
			outputs = append(outputs, planned{cfg.Output.TK2Dir, v})
		}
	}
	if *cfg.Split.TK3 {
		for _, v := range tk3s {
			outputs = append(outputs, planned{cfg.Output.TK3Dir, v})
		}
	}
	// All names are checked first so a clash leaves no partial output.
	for _, o := range outputs {
		if err := checkFree(o.dir, o.c); err != nil {
			return err
		}
	}
	for _, o := range outputs {
		p, err := writeContainer(o.dir, "", o.c)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", p)
	}
	return nil
}

type planned struct {
	dir string
	c   tk.Container
}
