// Package stream replays a complete answer word by word so it reads like a
// live typing model. The gateway has no incremental transport; everything
// here happens after the full answer has arrived.
package stream

import (
	"context"
	"strings"
	"time"
)

const (
	DefaultWordDelay     = 30 * time.Millisecond
	DefaultSentenceDelay = 100 * time.Millisecond
)

// Revealer paces the reveal. The zero value uses the default delays.
type Revealer struct {
	WordDelay     time.Duration
	SentenceDelay time.Duration

	// wait is swapped out in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// New returns a Revealer with the given delays; non-positive values keep
// the defaults.
func New(wordDelay, sentenceDelay time.Duration) *Revealer {
	r := &Revealer{WordDelay: DefaultWordDelay, SentenceDelay: DefaultSentenceDelay}
	if wordDelay > 0 {
		r.WordDelay = wordDelay
	}
	if sentenceDelay > 0 {
		r.SentenceDelay = sentenceDelay
	}
	return r
}

// Reveal calls onUpdate with a growing prefix of text, one word at a time,
// pausing after each word. Words are split on single spaces so newlines in
// markdown survive; the final buffer equals text. It returns ctx.Err() if
// the context ends first.
func (r *Revealer) Reveal(ctx context.Context, text string, onUpdate func(partial string)) error {
	words := strings.Split(text, " ")
	var buf strings.Builder
	buf.Grow(len(text))

	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(w)
		onUpdate(buf.String())

		if err := r.sleep(ctx, r.delayAfter(w)); err != nil {
			return err
		}
	}
	return nil
}

// Chunks runs Reveal in a goroutine and delivers each partial buffer on the
// returned channel, which is closed when the reveal ends. The error channel
// receives at most one value.
func (r *Revealer) Chunks(ctx context.Context, text string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)
		err := r.Reveal(ctx, text, func(partial string) {
			select {
			case out <- partial:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errc <- err
		}
	}()
	return out, errc
}

// delayAfter is the pause following word: longer at sentence ends.
func (r *Revealer) delayAfter(word string) time.Duration {
	if EndsSentence(word) {
		if r.SentenceDelay > 0 {
			return r.SentenceDelay
		}
		return DefaultSentenceDelay
	}
	if r.WordDelay > 0 {
		return r.WordDelay
	}
	return DefaultWordDelay
}

// EndsSentence reports whether word ends in '.', '!' or '?'.
func EndsSentence(word string) bool {
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func (r *Revealer) sleep(ctx context.Context, d time.Duration) error {
	if r.wait != nil {
		return r.wait(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
