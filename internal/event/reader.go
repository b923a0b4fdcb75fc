package event

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Reader decodes events from a stream of JSON values, one event per value.
type Reader struct {
	dec *json.Decoder
	n   int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(bufio.NewReader(r))}
}

// Next returns the next event, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (*Event, error) {
	var ev Event
	if err := r.dec.Decode(&ev); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode event %d: %w", r.n, err)
	}
	r.n++
	return &ev, nil
}
