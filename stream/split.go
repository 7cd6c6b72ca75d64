package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Splitter yields the documents of a stream one at a time. Next returns
// io.EOF after the last document.
type Splitter interface {
	Next() ([]byte, error)
}

// SplitError reports a stream that stopped making sense.
type SplitError struct {
	// Format is the stream format.
	Format string

	// Index is the position of the document that could not be read.
	Index int

	Err error
}

// Error implements the error interface.
func (e *SplitError) Error() string {
	return fmt.Sprintf("stream: %s document %d: %v", e.Format, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *SplitError) Unwrap() error {
	return e.Err
}

type jsonSplitter struct {
	dec   *json.Decoder
	index int
}

// JSON splits a sequence of JSON values, e.g. newline-delimited JSON.
func JSON(r io.Reader) Splitter {
	return &jsonSplitter{dec: json.NewDecoder(r)}
}

func (s *jsonSplitter) Next() ([]byte, error) {
	var raw json.RawMessage
	if err := s.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &SplitError{Format: "json", Index: s.index, Err: err}
	}
	s.index++
	return raw, nil
}

type arraySplitter struct {
	dec     *json.Decoder
	index   int
	started bool
	done    bool
}

// JSONArray splits the elements of a single top-level JSON array without
// reading the whole array into memory.
func JSONArray(r io.Reader) Splitter {
	return &arraySplitter{dec: json.NewDecoder(r)}
}

func (s *arraySplitter) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	if !s.started {
		s.started = true
		tok, err := s.dec.Token()
		if err != nil {
			s.done = true
			return nil, &SplitError{Format: "json array", Err: err}
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			s.done = true
			return nil, &SplitError{Format: "json array", Err: fmt.Errorf("expected array start, got %v", tok)}
		}
	}
	if !s.dec.More() {
		s.done = true
		if _, err := s.dec.Token(); err != nil {
			return nil, &SplitError{Format: "json array", Index: s.index, Err: err}
		}
		return nil, io.EOF
	}

	var raw json.RawMessage
	if err := s.dec.Decode(&raw); err != nil {
		s.done = true
		return nil, &SplitError{Format: "json array", Index: s.index, Err: err}
	}
	s.index++
	return raw, nil
}

type yamlSplitter struct {
	dec   *yaml.Decoder
	index int
}

// YAML splits a multi-document YAML stream. Each document is re-encoded on
// its own.
func YAML(r io.Reader) Splitter {
	return &yamlSplitter{dec: yaml.NewDecoder(r)}
}

func (s *yamlSplitter) Next() ([]byte, error) {
	var doc yaml.Node
	if err := s.dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &SplitError{Format: "yaml", Index: s.index, Err: err}
	}
	s.index++

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, &SplitError{Format: "yaml", Index: s.index - 1, Err: err}
	}
	return data, nil
}

// For returns the Splitter for a format name: "json" (a sequence of values),
// "array" (the elements of one array), "yaml", or "auto", which picks json
// for input starting with '{' or '[' and yaml otherwise.
func For(format string, r io.Reader) (Splitter, error) {
	switch strings.ToLower(format) {
	case "json", "ndjson":
		return JSON(r), nil
	case "array":
		return JSONArray(r), nil
	case "yaml", "yml":
		return YAML(r), nil
	case "", "auto":
		br := bufio.NewReader(r)
		if looksLikeJSON(br) {
			return JSON(br), nil
		}
		return YAML(br), nil
	}
	return nil, fmt.Errorf("stream: unknown format %q", format)
}

// looksLikeJSON peeks past leading whitespace for a JSON container.
func looksLikeJSON(br *bufio.Reader) bool {
	for n := 1; ; n++ {
		peek, err := br.Peek(n)
		if len(peek) < n {
			return false
		}
		c := peek[n-1]
		if bytes.IndexByte([]byte(" \t\r\n"), c) >= 0 {
			if err != nil {
				return false
			}
			continue
		}
		return c == '{' || c == '['
	}
}
