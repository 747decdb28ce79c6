package tracking

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/YuminosukeSato/mltrack/internal/fsutil"
	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// Store is the on-disk Log Store of one run: a JSON document mapping each metric name to
// its base64-encoded series. Every append is a read-modify-write of the whole file.
//
// Append holds the store mutex for the whole read-modify-write and replaces the file with a
// rename, so concurrent flushes from different buffers cannot lose each other's updates and
// readers never see a half-written document.
type Store struct {
	path   string
	mu     sync.Mutex
	writes atomic.Int64
}

// CreateStore writes an empty document at path.
func CreateStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.write(map[string]string{}); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenStore opens an existing Log Store without modifying it.
func OpenStore(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewIOFailure("stat", path, err)
	}
	return &Store{path: path}, nil
}

// Path returns the file path.
func (s *Store) Path() string {
	return s.path
}

// Writes returns how many times the file has been rewritten through this Store.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

// Append adds events to the end of metric's series.
func (s *Store) Append(metric string, events []MetricEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	var series []MetricEvent
	if enc, ok := doc[metric]; ok {
		series, err = DecodeText(enc)
		if err != nil {
			return errors.Wrapf(err, "decode %q in %s", metric, s.path)
		}
	}
	series = append(series, events...)
	doc[metric] = EncodeText(series)

	return s.write(doc)
}

// Load decodes every series in the file.
func (s *Store) Load() (map[string][]MetricEvent, error) {
	s.mu.Lock()
	doc, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]MetricEvent, len(doc))
	for metric, enc := range doc {
		events, err := DecodeText(enc)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %q in %s", metric, s.path)
		}
		out[metric] = events
	}
	return out, nil
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.NewIOFailure("read", s.path, err)
	}
	doc := map[string]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewIOFailure("parse", s.path, err)
	}
	return doc, nil
}

func (s *Store) write(doc map[string]string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.NewIOFailure("encode", s.path, err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return err
	}
	s.writes.Add(1)
	return nil
}
