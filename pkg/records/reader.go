package records

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	jsonpool "github.com/ajitpratap0/jsoncol/pkg/json"
)

// Format represents the layout of the JSON input
type Format string

const (
	// FormatAuto picks FormatArray when the first non-blank byte is '['
	FormatAuto Format = "auto"
	// FormatLines represents line-delimited JSON (JSONL/NDJSON)
	FormatLines Format = "lines"
	// FormatArray represents a file containing a JSON array of objects
	FormatArray Format = "array"
)

// ParseFormat validates a format name. The empty string means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatLines, "jsonl", "ndjson":
		return FormatLines, nil
	case FormatArray:
		return FormatArray, nil
	default:
		return "", fmt.Errorf("unknown input format %q (want auto, lines or array)", s)
	}
}

const defaultBufferSize = 64 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader reads records one at a time. It is not safe for concurrent use.
type Reader struct {
	br     *bufio.Reader
	format Format

	// array state
	dec          *gojson.Decoder
	arrayStarted bool

	position int64
	started  bool
	done     bool
	err      error // sticky fatal error
}

// NewReader creates a reader over r. The input is buffered internally.
func NewReader(r io.Reader, format Format) *Reader {
	if format == "" {
		format = FormatAuto
	}
	return &Reader{
		br:     bufio.NewReaderSize(r, defaultBufferSize),
		format: format,
	}
}

// Format returns the input layout. For FormatAuto it is resolved by the
// first call to Next.
func (r *Reader) Format() Format {
	return r.format
}

// Next returns the next record. It returns io.EOF when the input is
// exhausted. Errors for which colerrors.IsRecoverable is true affect only
// the current record and Next may be called again; any other error is
// returned again by every following call.
func (r *Reader) Next() (*Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}
	if !r.started {
		r.started = true
		if err := r.start(); err != nil {
			return nil, r.fail(err)
		}
		if r.done {
			return nil, io.EOF
		}
	}

	if r.format == FormatArray {
		return r.nextElement()
	}
	return r.nextLine()
}

func (r *Reader) fail(err error) error {
	r.err = err
	return err
}

// start strips a byte order mark and resolves FormatAuto.
func (r *Reader) start() error {
	if bom, err := r.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		if _, err := r.br.Discard(len(utf8BOM)); err != nil {
			return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to read input")
		}
	}
	if r.format != FormatAuto {
		return nil
	}

	for {
		c, err := r.br.ReadByte()
		if err == io.EOF {
			r.format = FormatLines
			r.done = true
			return nil
		}
		if err != nil {
			return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to read input")
		}
		if isSpace(c) {
			continue
		}
		if err := r.br.UnreadByte(); err != nil {
			return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to read input")
		}
		if c == '[' {
			r.format = FormatArray
		} else {
			r.format = FormatLines
		}
		return nil
	}
}

func (r *Reader) nextLine() (*Record, error) {
	for {
		line, err := r.br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, r.fail(colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to read input"))
		}
		eof := err == io.EOF
		if len(line) == 0 && eof {
			r.done = true
			return nil, io.EOF
		}
		r.position++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if eof {
				r.done = true
				return nil, io.EOF
			}
			continue
		}
		if eof {
			r.done = true
		}

		rec, perr := parseObject(line)
		if perr != nil {
			return nil, colerrors.Wrap(perr, colerrors.ErrorTypeParse, "malformed record").
				WithDetail("line", r.position)
		}
		rec.Position = r.position
		return rec, nil
	}
}

func (r *Reader) nextElement() (*Record, error) {
	if !r.arrayStarted {
		r.dec = jsonpool.NewDecoder(r.br)
		tok, err := r.dec.Token()
		if err != nil {
			return nil, r.fail(corrupt(err, r.position))
		}
		if d, ok := tok.(gojson.Delim); !ok || d != '[' {
			return nil, r.fail(corrupt(fmt.Errorf("expected '[', found %v", tok), r.position))
		}
		r.arrayStarted = true
	}

	if !r.dec.More() {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, r.fail(corrupt(err, r.position))
		}
		if d, ok := tok.(gojson.Delim); !ok || d != ']' {
			return nil, r.fail(corrupt(fmt.Errorf("expected ']', found %v", tok), r.position))
		}
		if _, err := r.dec.Token(); err != io.EOF {
			return nil, r.fail(corrupt(errors.New("unexpected data after top-level array"), r.position))
		}
		r.done = true
		return nil, io.EOF
	}

	var raw gojson.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		return nil, r.fail(corrupt(err, r.position+1))
	}
	r.position++

	rec, err := parseObject(raw)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeParse, "malformed record").
			WithDetail("element", r.position)
	}
	rec.Position = r.position
	return rec, nil
}

func corrupt(err error, position int64) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return colerrors.Wrap(err, colerrors.ErrorTypeCorruptInput, "malformed JSON array").
		WithDetail("element", position)
}

// parseObject decodes one JSON object keeping its key order.
func parseObject(data []byte) (*Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !jsonpool.Valid(data) {
		return nil, errors.New("invalid JSON")
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object, found %s", describe(data[0]))
	}

	dec := jsonpool.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // '{'
		return nil, err
	}
	rec := &Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, found %v", tok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		rec.set(key, value)
	}
	return rec, nil
}

func describe(c byte) string {
	switch {
	case c == '[':
		return "an array"
	case c == '"':
		return "a string"
	case c == 't' || c == 'f':
		return "a boolean"
	case c == 'n':
		return "null"
	default:
		return "a number"
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
