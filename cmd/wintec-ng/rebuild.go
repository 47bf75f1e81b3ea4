package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wintec-ng/internal/logging"
	"wintec-ng/internal/tk"
)

func newRebuildCommand(a *app) *cobra.Command {
	var (
		dir, output string
		del         bool
	)
	cmd := &cobra.Command{
		Use:   "rebuild FILE.tk1",
		Short: "Recompute the footer of a .tk1 file and store it under its canonical name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dir") {
				dir = a.cfg.Output.Dir
			}
			return rebuild(cmd, args[0], dir, output, del)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", "", "Output directory")
	f.StringVarP(&output, "output", "o", "", "Output file name (default: canonical name)")
	f.BoolVar(&del, "delete", false, "Delete the source file afterwards")
	return cmd
}

func rebuild(cmd *cobra.Command, src, dir, output string, del bool) error {
	out := cmd.OutOrStdout()
	if err := checkDir(dir); err != nil {
		return err
	}
	if output != "" {
		if _, err := os.Stat(filepath.Join(dir, output)); err == nil {
			return fmt.Errorf("output file %s already exists", output)
		}
	}

	// The stored footer is replaced, so it need not match.
	c, err := tk.ReadFile(src, tk.SkipFooterCheck())
	if err != nil {
		return err
	}
	v1, ok := c.(*tk.V1)
	if !ok {
		return fmt.Errorf("%s: %s is not a .tk1 file", src, c.Kind())
	}
	rebuilt, err := tk.RebuildFooter(v1)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	logging.Info("rebuild src=%s tracks_before=%d tracks_after=%d", src, len(v1.Footer), len(rebuilt.Footer))

	path, err := writeContainer(dir, output, rebuilt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%d tracks)\n", path, rebuilt.TrackCount())

	if del {
		same, err := samePath(src, path)
		if err != nil {
			return err
		}
		if !same {
			if err := os.Remove(src); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %s\n", src)
		}
	}
	return nil
}

func samePath(a, b string) (bool, error) {
	sa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(sa, sb), nil
}
