package snapshot

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var fileSchemaJSON []byte

const (
	fileSchemaURL = "snapshot-file.schema.json"
	fileVersion   = 1
)

var (
	fileSchemaOnce sync.Once
	fileSchema     *jsonschema.Schema
	fileSchemaErr  error
)

func compiledFileSchema() (*jsonschema.Schema, error) {
	fileSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(fileSchemaURL, bytes.NewReader(fileSchemaJSON)); err != nil {
			fileSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		fileSchema, fileSchemaErr = compiler.Compile(fileSchemaURL)
		if fileSchemaErr != nil {
			fileSchemaErr = fmt.Errorf("compile schema: %w", fileSchemaErr)
		}
	})
	return fileSchema, fileSchemaErr
}

type fileDocument struct {
	Version   int                        `json:"version"`
	Snapshots map[string]json.RawMessage `json:"snapshots"`
}

// FileStore keeps every snapshot of a suite in one JSON document on disk.
// The document is validated against an embedded JSON Schema on every read
// and replaced atomically on every write.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore backed by path. The parent directory is
// created if needed; the file itself is created on the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if _, err := compiledFileSchema(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context, id string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, false, err
	}
	raw, ok := doc.Snapshots[id]
	if !ok {
		return nil, false, nil
	}
	tree, err := Decode(raw)
	if err != nil {
		return nil, false, err
	}
	return tree, true, nil
}

func (s *FileStore) Save(_ context.Context, id string, tree any) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Snapshots[id] = data
	return s.write(doc)
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Snapshots[id]; !ok {
		return nil
	}
	delete(doc.Snapshots, id)
	return s.write(doc)
}

func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Snapshots))
	for k := range doc.Snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) read() (*fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &fileDocument{Version: fileVersion, Snapshots: make(map[string]json.RawMessage)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.path, err)
	}
	if doc.Snapshots == nil {
		doc.Snapshots = make(map[string]json.RawMessage)
	}
	return &doc, nil
}

func (s *FileStore) write(doc *fileDocument) error {
	doc.Version = fileVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot file: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

func validateDocument(data []byte) error {
	schema, err := compiledFileSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return err
	}
	return schema.Validate(payload)
}
