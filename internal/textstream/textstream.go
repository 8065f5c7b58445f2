// Package textstream models incremental text as a sequence of chunks so that
// streaming and one-shot sources can be consumed through one interface.
package textstream

import (
	"errors"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the read buffer used by FromReader.
const DefaultChunkSize = 4096

// Stream yields text chunks in order. A non-nil error ends the stream; it is
// always the last pair yielded.
type Stream = iter.Seq2[string, error]

// Single yields text as one chunk. Empty text yields nothing.
func Single(text string) Stream {
	return Chunks(text)
}

// Chunks yields each non-empty chunk in order.
func Chunks(chunks ...string) Stream {
	return func(yield func(string, error) bool) {
		for _, chunk := range chunks {
			if chunk == "" {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Failure yields err and nothing else.
func Failure(err error) Stream {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}

// Then yields the chunks of first followed by those of second.
func Then(first, second Stream) Stream {
	return func(yield func(string, error) bool) {
		for chunk, err := range first {
			if !yield(chunk, err) || err != nil {
				return
			}
		}
		for chunk, err := range second {
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// FromReader yields text as it is read from rc, decoding UTF-8 incrementally
// so a multi-byte rune split across reads is held back until complete. rc is
// closed when the stream ends or the consumer stops early. A read error other
// than io.EOF is yielded once and ends the stream.
func FromReader(rc io.ReadCloser) Stream {
	return FromReaderSize(rc, DefaultChunkSize)
}

// FromReaderSize is FromReader with an explicit read buffer size.
func FromReaderSize(rc io.ReadCloser, size int) Stream {
	if size < utf8.UTFMax {
		size = utf8.UTFMax
	}

	return func(yield func(string, error) bool) {
		defer rc.Close()

		buf := make([]byte, size)
		var pending []byte

		for {
			n, err := rc.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)
				cut := completePrefix(pending)
				if cut > 0 {
					chunk := string(pending[:cut])
					pending = append(pending[:0], pending[cut:]...)
					if !yield(chunk, nil) {
						return
					}
				}
			}

			if errors.Is(err, io.EOF) {
				if len(pending) > 0 {
					// Trailing bytes never completed a rune; emit them as-is.
					yield(strings.ToValidUTF8(string(pending), string(utf8.RuneError)), nil)
				}
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

// completePrefix returns the length of the longest prefix of b that does not
// end in the middle of a UTF-8 sequence.
func completePrefix(b []byte) int {
	end := len(b)
	// A rune is at most UTFMax bytes, so only the tail needs inspecting.
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if !utf8.FullRune(b[start:]) {
			end = start
		}
		break
	}
	return end
}

// Collect drains s and returns the concatenated text. On error the text read
// so far is returned with it.
func Collect(s Stream) (string, error) {
	var b strings.Builder
	for chunk, err := range s {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}
