package credentials

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"renderfarm/internal/fileutil"
)

// ErrUnstorable is returned by Write for values the file format cannot hold.
// Both fields are written as single-quoted literal strings, which have no
// escapes, so a user name with an apostrophe or a line break never reaches
// disk.
var ErrUnstorable = errors.New("credentials: value cannot be stored")

// Record is the persisted login.
type Record struct {
	User string `toml:"user"`
	Hash string `toml:"hash"`
}

// Empty reports whether either field is missing.
func (r Record) Empty() bool {
	return strings.TrimSpace(r.User) == "" || strings.TrimSpace(r.Hash) == ""
}

// HashPassword derives the token the farm expects: hex MD5 of the password
// bytes followed by the user bytes.
func HashPassword(password, user string) string {
	sum := md5.Sum([]byte(password + user))
	return hex.EncodeToString(sum[:])
}

// Store abstracts credential persistence.
type Store interface {
	Read() (Record, error)
	Write(Record) error
}

// FileStore keeps the record in a TOML file on disk.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Read loads the record. A missing file is first created with empty values,
// so the first call on a fresh machine returns an empty record and no error.
func (s *FileStore) Read() (Record, error) {
	unlock, err := s.lock()
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(Record{}); err != nil {
			return Record{}, err
		}
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read credentials: %w", err)
	}

	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode credentials: %w", err)
	}
	return rec, nil
}

// Write replaces the record atomically, creating the directory if needed.
func (s *FileStore) Write(rec Record) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	return s.write(rec)
}

// Clear writes an empty record.
func (s *FileStore) Clear() error {
	return s.Write(Record{})
}

func (s *FileStore) write(rec Record) error {
	for field, value := range map[string]string{"user": rec.User, "hash": rec.Hash} {
		if strings.ContainsAny(value, "'\n\r") {
			return fmt.Errorf("%w: %s contains a single quote or line break", ErrUnstorable, field)
		}
	}
	body := fmt.Sprintf("user = '%s'\nhash = '%s'\n", rec.User, rec.Hash)
	if err := fileutil.WriteFileAtomic(s.path, []byte(body), 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure credentials directory: %w", err)
	}
	fl := flock.New(s.path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock credentials: %w", err)
	}
	return func() { _ = fl.Unlock() }, nil
}
