//go:build linux

package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yshui/entangle/internal/domain"
)

func writeSysFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bitmap")
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestSysBitmap(t *testing.T) {
	// Single word: EV_SYN | EV_KEY | EV_REL | EV_MSC, a typical mouse.
	bits, err := sysBitmap(writeSysFile(t, "17"))
	if err != nil {
		t.Fatalf("sysBitmap: %v", err)
	}
	for _, n := range []int{0, 1, 2, 4} {
		if !bits.Test(n) {
			t.Fatalf("bit %d not set", n)
		}
	}
	if bits.Test(3) {
		t.Fatal("bit 3 set unexpectedly")
	}

	// Multiple words: most significant first, so the second word covers
	// bits 0-63 and the first bits 64-127.
	bits, err = sysBitmap(writeSysFile(t, "1 8000000000000000"))
	if err != nil {
		t.Fatalf("sysBitmap: %v", err)
	}
	if !bits.Test(63) {
		t.Fatal("bit 63 not set")
	}
	if !bits.Test(64) {
		t.Fatal("bit 64 not set")
	}
	if bits.Count() != 2 {
		t.Fatalf("Count = %d, want 2", bits.Count())
	}

	if _, err := sysBitmap(writeSysFile(t, "zz")); err == nil {
		t.Fatal("malformed bitmap accepted")
	}
}

func TestClassify(t *testing.T) {
	var mouse domain.Capabilities
	mouse.Events.Set(int(domain.EventKey))
	mouse.Events.Set(int(domain.EventRelative))
	mouse.Keys.Set(btnLeft)
	mouse.Rel.Set(0)
	if got := classify(mouse); got != domain.ClassPointer {
		t.Fatalf("mouse classified as %s", got)
	}

	var keyboard domain.Capabilities
	keyboard.Events.Set(int(domain.EventKey))
	for code := 1; code <= 80; code++ {
		keyboard.Keys.Set(code)
	}
	if got := classify(keyboard); got != domain.ClassKeyboard {
		t.Fatalf("keyboard classified as %s", got)
	}

	var button domain.Capabilities
	button.Events.Set(int(domain.EventKey))
	button.Keys.Set(256)
	if got := classify(button); got != domain.ClassGeneric {
		t.Fatalf("lone button classified as %s", got)
	}
}
