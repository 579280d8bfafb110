package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yshui/entangle/internal/domain"
	"github.com/yshui/entangle/internal/store"
)

func TestCredential_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()

	var creds domain.CredentialStore = store.NewFileStore(home)

	cred := domain.Credential{
		Peer:      "laptop",
		Secret:    domain.Secret{1, 2, 3},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := creds.Save(cred); err != nil {
		t.Fatalf("save credential: %v", err)
	}

	got, ok, err := creds.Load("laptop")
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if !ok {
		t.Fatal("credential missing after save")
	}
	if got.Secret != cred.Secret || !got.CreatedAt.Equal(cred.CreatedAt) {
		t.Fatalf("mismatch after load: %+v", got)
	}
}

func TestCredential_UnknownPeer(t *testing.T) {
	creds := store.NewFileStore(t.TempDir())

	_, ok, err := creds.Load("nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("unknown peer reported as paired")
	}
}

func TestCredential_Overwrite(t *testing.T) {
	creds := store.NewFileStore(t.TempDir())

	first := domain.Credential{Peer: "laptop", Secret: domain.Secret{1}, CreatedAt: time.Now()}
	second := domain.Credential{Peer: "laptop", Secret: domain.Secret{2}, CreatedAt: time.Now()}
	if err := creds.Save(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := creds.Save(second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := creds.Load("laptop")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Secret != second.Secret {
		t.Fatal("re-pairing did not replace the credential")
	}

	all, err := creds.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("want 1 credential, got %d", len(all))
	}
}

func TestCredential_SurvivesReopen(t *testing.T) {
	home := t.TempDir()

	cred := domain.Credential{Peer: "desktop", Secret: domain.Secret{9}, CreatedAt: time.Now()}
	if err := store.NewFileStore(home).Save(cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store over the same directory sees the credential.
	got, ok, err := store.NewFileStore(home).Load("desktop")
	if err != nil || !ok {
		t.Fatalf("load after reopen: ok=%v err=%v", ok, err)
	}
	if got.Secret != cred.Secret {
		t.Fatal("secret changed across reopen")
	}
}

func TestCredential_ListSorted(t *testing.T) {
	creds := store.NewFileStore(t.TempDir())

	for _, peer := range []string{"zebra", "alpha", "mango"} {
		err := creds.Save(domain.Credential{Peer: peer, Secret: domain.Secret{1}, CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("save %s: %v", peer, err)
		}
	}

	all, err := creds.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"alpha", "mango", "zebra"}
	if len(all) != len(want) {
		t.Fatalf("want %d credentials, got %d", len(want), len(all))
	}
	for i, peer := range want {
		if all[i].Peer != peer {
			t.Fatalf("position %d: want %q, got %q", i, peer, all[i].Peer)
		}
	}
}

func TestCredential_EmptyPeerRejected(t *testing.T) {
	creds := store.NewFileStore(t.TempDir())
	if err := creds.Save(domain.Credential{Secret: domain.Secret{1}}); err == nil {
		t.Fatal("expected error saving empty peer identifier")
	}
}

func TestCredential_FileMode(t *testing.T) {
	home := t.TempDir()
	creds := store.NewFileStore(home)
	if err := creds.Save(domain.Credential{Peer: "p", Secret: domain.Secret{1}, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(filepath.Join(home, "entangle.toml"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credential file mode %o, want 600", perm)
	}
}
