package keys

import (
	"regexp"
	"strings"
	"testing"
	"unicode"
)

var allowed = regexp.MustCompile(`^[A-Za-z0-9:_=.\-]+$`)

func TestSession_Deterministic(t *testing.T) {
	k1 := Session("scene A")
	k2 := Session("  scene \t A ")
	if k1 != k2 {
		t.Fatalf("whitespace variants differ:\n k1=%s\n k2=%s", k1, k2)
	}
	if !strings.HasPrefix(k1, "cityjson:session:scene_A:h=") {
		t.Fatalf("unexpected key %s", k1)
	}
	if !allowed.MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestSession_SanitizedCollisionsStayDistinct(t *testing.T) {
	a := Session("delft:1")
	b := Session("delft/1")
	if a == b {
		t.Fatalf("ids that sanitize alike must keep distinct hashes: %s", a)
	}
}

func TestSession_UnicodeAndLength(t *testing.T) {
	k := Session(strings.Repeat("Göteborg 雪 ", 20))
	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}
	if len(k) > len("cityjson:session:")+64+len(":h=")+16 {
		t.Fatalf("key too long: %d", len(k))
	}
}

func TestDocument_OptionsChangeKey(t *testing.T) {
	body := []byte(`{"type":"CityJSON"}`)
	if Document(body, "holes=false") == Document(body, "holes=true") {
		t.Fatalf("options must be part of the key")
	}
	if Document(body, "x") != Document(body, "x") {
		t.Fatalf("document key not deterministic")
	}
	if !strings.HasPrefix(Document(body, ""), "cityjson:doc:") {
		t.Fatalf("unexpected prefix: %s", Document(body, ""))
	}
}
