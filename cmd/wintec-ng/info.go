package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wintec-ng/internal/geo"
	"wintec-ng/internal/logging"
	"wintec-ng/internal/tk"
)

type infoOptions struct {
	comment  string
	timezone string
	autoTZ   bool

	setComment bool
	setOffset  bool
	offset     tk.Offset
}

func newInfoCommand(a *app) *cobra.Command {
	var o infoOptions
	cmd := &cobra.Command{
		Use:   "info FILE...",
		Short: "Show the contents of .tk1, .tk2 and .tk3 files and edit comment and timezone of .tk2/.tk3 files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			o.setComment = flags.Changed("comment")
			if len(o.comment) > tk.MaxCommentLen {
				return fmt.Errorf("comment must be at most %d bytes", tk.MaxCommentLen)
			}
			if flags.Changed("timezone") {
				if o.autoTZ {
					return fmt.Errorf("--timezone cannot be used with --autotz")
				}
				off, err := tk.ParseOffset(o.timezone)
				if err != nil {
					return err
				}
				o.setOffset, o.offset = true, off
			}

			out := cmd.OutOrStdout()
			files := expandArgs(args)
			failed := 0
			for _, path := range files {
				if err := info(out, path, o); err != nil {
					logging.Error("info %s: %v", path, err)
					failed++
				}
			}
			if failed > 0 {
				return &errBatch{failed: failed, total: len(files)}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.comment, "comment", "c", "", "Set the comment of .tk2/.tk3 files")
	f.StringVarP(&o.timezone, "timezone", "t", "", "Set the timezone of .tk2/.tk3 files as +hh:mm")
	f.BoolVar(&o.autoTZ, "autotz", false, "Derive the timezone of .tk2/.tk3 files from the first trackpoint")
	return cmd
}

// edit applies the requested metadata changes. It reports false when c is
// unchanged.
func (o infoOptions) edit(c tk.Container) (tk.Container, bool) {
	if !o.setComment && !o.setOffset && !o.autoTZ {
		return c, false
	}
	apply := func(comment string, off tk.Offset, first tk.TrackPoint) (string, tk.Offset) {
		if o.setComment {
			comment = o.comment
		}
		if o.setOffset {
			off = o.offset
		}
		if o.autoTZ {
			off = tk.Offset(geo.DetermineOffset(first.Lat, first.Lon))
		}
		return comment, off
	}
	switch v := c.(type) {
	case *tk.V2:
		return v.With(apply(v.Comment, v.Offset, v.Track.First())), true
	case *tk.V3:
		return v.With(apply(v.Comment, v.Offset, v.Track.First())), true
	default:
		return c, false
	}
}

func info(out io.Writer, path string, o infoOptions) error {
	c, err := tk.ReadFile(path)
	if err != nil {
		return err
	}
	if edited, changed := o.edit(c); changed {
		if err := replaceFile(path, edited); err != nil {
			return err
		}
		logging.Info("info updated=%s", path)
		c = edited
	}

	name, err := tk.Filename(c)
	if err != nil {
		return err
	}
	desc, err := tk.Describe(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Filename: %s\n", path)
	fmt.Fprintf(out, "Canonical filename: %s\n", name)
	fmt.Fprint(out, desc)
	return nil
}

// replaceFile rewrites path with c through a temporary file in the same
// directory.
func replaceFile(path string, c tk.Container) error {
	b, err := tk.Encode(c)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wintec-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
