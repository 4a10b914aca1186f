package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/mira/tree"
)

const prefsSchema = `
theme:    string
fontSize: int & >=6
volume:   >=0 & <=1.0
muted:    bool
`

func conformingPrefs() *tree.Node {
	n := tree.Object()
	n.Set("theme", tree.String("dark"))
	n.Set("fontSize", tree.Int(14))
	n.Set("volume", tree.Float(0.5))
	n.Set("muted", tree.Bool(false))
	return n
}

func TestCompileError(t *testing.T) {
	if _, err := Compile("bad.cue", "theme: string &"); err == nil {
		t.Error("Compile should reject malformed source")
	}
}

func TestValidateConforming(t *testing.T) {
	s, err := Compile("prefs.cue", prefsSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := s.Validate(conformingPrefs()); err != nil {
		t.Errorf("Validate conforming document: %v", err)
	}
}

func TestValidateTypeViolationNamesPath(t *testing.T) {
	s, err := Compile("prefs.cue", prefsSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	doc := conformingPrefs()
	doc.Set("volume", tree.String("loud"))

	err = s.Validate(doc)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate: err = %v, want *ValidationError", err)
	}
	found := false
	for _, is := range verr.Issues {
		if is.Path == "volume" {
			found = true
		}
	}
	if !found {
		t.Errorf("issues %+v do not name path %q", verr.Issues, "volume")
	}
	if !strings.Contains(verr.Error(), "volume") {
		t.Errorf("error text %q does not mention the offending field", verr.Error())
	}
}

func TestValidateRangeViolation(t *testing.T) {
	s, err := Compile("prefs.cue", prefsSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	doc := conformingPrefs()
	doc.Set("volume", tree.Float(1.5))

	if err := s.Validate(doc); err == nil {
		t.Error("Validate should reject out-of-range volume")
	}
}

func TestValidateMissingRequiredField(t *testing.T) {
	s, err := Compile("prefs.cue", prefsSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	doc := conformingPrefs()
	doc.Delete("muted")

	if err := s.Validate(doc); err == nil {
		t.Error("Validate should reject a document missing a required field")
	}
}

func TestValidateAllowsUnknownKeys(t *testing.T) {
	s, err := Compile("prefs.cue", prefsSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	doc := conformingPrefs()
	doc.Set("futureSetting", tree.String("whatever"))

	if err := s.Validate(doc); err != nil {
		t.Errorf("unknown keys should pass an open schema: %v", err)
	}
}

func TestValidateConcurrent(t *testing.T) {
	s, err := Compile("prefs.cue", prefsSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- s.Validate(conformingPrefs()) }()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Validate: %v", err)
		}
	}
}
