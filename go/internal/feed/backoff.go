package feed

import "time"

// backoff yields capped exponential delays: base, 2x, 4x ... up to cap.
type backoff struct {
	base time.Duration
	cap  time.Duration
	next time.Duration
}

func newBackoff(base, cap time.Duration) *backoff {
	return &backoff{base: base, cap: cap, next: base}
}

func (b *backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > b.cap {
		b.next = b.cap
	}
	return d
}

func (b *backoff) Reset() {
	b.next = b.base
}
