// Package tk reads and writes the Wintec track-log containers (.tk1, .tk2,
// .tk3) and holds the Track/TrackPoint model shared with the acquisition
// driver.
//
// A .tk1 file (V1) is what the logger hands out: raw trackpoint records plus a
// footer table that delimits the tracks in it. .tk2 (V2) and .tk3 (V3) files
// carry a single track each, together with a UTC offset and a user comment.
// All multi-byte fields are little-endian.
package tk
