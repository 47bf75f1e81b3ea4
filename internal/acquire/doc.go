// Package acquire reads the track log of a Wintec WBT-201 or WSG-1000 over
// its serial command interface.
//
// A Session logs in, queries the device identity and log addresses, then
// copies the circular log buffer block by block. Every block is verified
// against the XOR checksum the device sends after it. Checksum and address
// mismatches are retried a few times; read timeouts are retried until the
// device answers. Close always leaves command mode, so callers should defer it
// right after NewSession.
package acquire
