package tk

import (
	"fmt"
	"time"
)

// FilenameTimeLayout is the timestamp layout used in canonical file names.
const FilenameTimeLayout = "2006-01-02_15-04-05"

// Filename derives the canonical file name of a container:
//
//	.tk1: <first>-<last>#<tracks>.tk1
//	.tk2: <first>.tk2
//	.tk3: <first>.tk3
//
// Times are UTC.
func Filename(c Container) (string, error) {
	switch v := c.(type) {
	case *V1:
		tracks, err := v.Tracks()
		if err != nil {
			return "", err
		}
		if len(tracks) == 0 {
			return fmt.Sprintf("%s#000%s", stamp(v.Header.ExportTime), KindV1.Ext()), nil
		}
		first := tracks[0].First().Time
		last := tracks[len(tracks)-1].Last().Time
		return fmt.Sprintf("%s-%s#%03d%s", stamp(first), stamp(last), len(tracks), KindV1.Ext()), nil
	case *V2:
		return singleFilename(v.Track, KindV2)
	case *V3:
		return singleFilename(v.Track, KindV3)
	default:
		return "", fmt.Errorf("tk: unknown container %T", c)
	}
}

func singleFilename(tr Track, k Kind) (string, error) {
	if tr.Len() == 0 {
		return "", fmt.Errorf("tk: %s has no trackpoints", k)
	}
	return stamp(tr.First().Time) + k.Ext(), nil
}

func stamp(t time.Time) string { return t.UTC().Format(FilenameTimeLayout) }
