// Package transcript records and replays the byte exchange with a serial
// device. Transcripts are plain text so they can be attached to bug reports
// and used as regression fixtures.
package transcript
