package nmea

import (
	"context"
	"time"

	"wintec-ng/internal/tk"
)

// Sink takes one datagram per trackpoint.
type Sink interface {
	Send(payload []byte) error
}

// sleep waits for d or until ctx is done.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stream sends the RMC and GGA sentences of each point as one datagram.
// Points are paced by their recorded time gap divided by speed; speed <= 0
// sends without delay. It returns the number of points sent.
func Stream(ctx context.Context, sink Sink, tracks []tk.Track, speed float64) (int, error) {
	sent := 0
	var prev time.Time
	for _, tr := range tracks {
		for i := 0; i < tr.Len(); i++ {
			p := tr.Point(i)
			if speed > 0 && !prev.IsZero() {
				if gap := time.Duration(float64(p.Time.Sub(prev)) / speed); gap > 0 {
					if err := sleep(ctx, gap); err != nil {
						return sent, err
					}
				}
			}
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			prev = p.Time
			if err := sink.Send([]byte(RMC(p) + "\r\n" + GGA(p) + "\r\n")); err != nil {
				return sent, err
			}
			sent++
		}
	}
	return sent, nil
}
