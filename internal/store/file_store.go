package store

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yshui/entangle/internal/domain"
)

const credFile = "entangle.toml"

type credRecord struct {
	Secret    string    `toml:"secret"` // base64
	CreatedAt time.Time `toml:"created_at"`
}

type credDoc struct {
	Peers map[string]credRecord `toml:"peers"`
}

// FileStore keeps pairing credentials in a TOML file under dir.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by dir/entangle.toml.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, credFile)}
}

var _ domain.CredentialStore = (*FileStore)(nil)

// Save writes or overwrites the record for cred.Peer.
func (s *FileStore) Save(cred domain.Credential) error {
	if cred.Peer == "" {
		return fmt.Errorf("store: empty peer identifier")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.Peers == nil {
		doc.Peers = make(map[string]credRecord)
	}
	doc.Peers[cred.Peer] = credRecord{
		Secret:    base64.StdEncoding.EncodeToString(cred.Secret.Slice()),
		CreatedAt: cred.CreatedAt.UTC(),
	}
	return s.write(doc)
}

// Load returns the credential stored for peer, ok=false when unpaired.
func (s *FileStore) Load(peer string) (domain.Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return domain.Credential{}, false, err
	}
	rec, exists := doc.Peers[peer]
	if !exists {
		return domain.Credential{}, false, nil
	}
	cred, err := rec.credential(peer)
	if err != nil {
		return domain.Credential{}, false, err
	}
	return cred, true, nil
}

// List returns all stored credentials sorted by peer name.
func (s *FileStore) List() ([]domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Credential, 0, len(doc.Peers))
	for peer, rec := range doc.Peers {
		cred, err := rec.credential(peer)
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out, nil
}

func (rec credRecord) credential(peer string) (domain.Credential, error) {
	raw, err := base64.StdEncoding.DecodeString(rec.Secret)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("store: decoding secret for %q: %w", peer, err)
	}
	if len(raw) != domain.SecretBytes {
		return domain.Credential{}, fmt.Errorf("store: secret for %q has %d bytes, want %d",
			peer, len(raw), domain.SecretBytes)
	}
	cred := domain.Credential{Peer: peer, CreatedAt: rec.CreatedAt}
	copy(cred.Secret[:], raw)
	return cred, nil
}

// read loads the document; a missing file is an empty store, not an error.
func (s *FileStore) read() (credDoc, error) {
	var doc credDoc
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if err := toml.Unmarshal(b, &doc); err != nil {
		return credDoc{}, fmt.Errorf("store: parsing %s: %w", s.path, err)
	}
	return doc, nil
}

// write serializes the document via a temp file, then atomically replaces
// the target.
func (s *FileStore) write(doc credDoc) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	f, err := os.CreateTemp(dir, credFile+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Best-effort cleanup if anything fails before rename.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
