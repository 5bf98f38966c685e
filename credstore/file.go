package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type fileRecord struct {
	AccessToken     string `json:"access_token,omitempty"`
	RefreshToken    string `json:"refresh_token,omitempty"`
	RememberedLogin string `json:"remembered_login,omitempty"`
}

// FileStore keeps the credential record in a single JSON file with 0600
// permissions. Writes go to a temp file in the same directory followed by
// a rename, so readers never observe a half-written pair.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path. The parent directory must
// exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save persists the record atomically.
func (s *FileStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(fileRecord{
		AccessToken:     rec.AccessToken,
		RefreshToken:    rec.RefreshToken,
		RememberedLogin: rec.RememberedLogin,
	})
}

// Load reads the record. A file holding only one half of the token pair
// is rewritten without tokens and reported as ErrCorruptRecord; an
// unparseable file is removed entirely.
func (s *FileStore) Load(ctx context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNoCredentials
		}
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		_ = os.Remove(s.path)
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	rec := Record{
		AccessToken:     fr.AccessToken,
		RefreshToken:    fr.RefreshToken,
		RememberedLogin: fr.RememberedLogin,
	}

	if rec.partial() {
		if err := s.clearLocked(rec.RememberedLogin); err != nil {
			return Record{}, err
		}
		return Record{RememberedLogin: rec.RememberedLogin}, ErrCorruptRecord
	}
	if !rec.HasTokens() {
		return Record{RememberedLogin: rec.RememberedLogin}, ErrNoCredentials
	}
	return rec, nil
}

// Clear erases the token pair and keeps the remembered login.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var fr fileRecord
	remembered := ""
	if json.Unmarshal(data, &fr) == nil {
		remembered = fr.RememberedLogin
	}
	return s.clearLocked(remembered)
}

func (s *FileStore) clearLocked(rememberedLogin string) error {
	if rememberedLogin == "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	}
	return s.writeLocked(fileRecord{RememberedLogin: rememberedLogin})
}

func (s *FileStore) writeLocked(fr fileRecord) error {
	data, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
