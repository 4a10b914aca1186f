// Package schema validates trees against CUE definitions before they are
// loaded into live objects. A schema is compiled once and reused; failures
// name the offending paths so a bad settings file points at the field that
// broke it.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/tliron/commonlog"

	"github.com/chazu/mira/tree"
)

var log = commonlog.GetLogger("mira.schema")

// Schema is a compiled CUE constraint. Safe for concurrent use.
type Schema struct {
	name string
	mu   sync.Mutex
	ctx  *cue.Context
	val  cue.Value
}

// Compile compiles CUE source into a reusable schema. The name is used in
// error messages and as the CUE filename.
func Compile(name, source string) (*Schema, error) {
	ctx := cuecontext.New()
	val := ctx.CompileString(source, cue.Filename(name))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("schema: compile %s: %w", name, err)
	}
	return &Schema{name: name, ctx: ctx, val: val}, nil
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string {
	return s.name
}

// Issue is one conformance failure, located by its path in the document.
type Issue struct {
	Path string
	Msg  string
}

// ValidationError reports every issue found by one Validate call.
type ValidationError struct {
	Schema string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema: document does not conform to %s:", e.Schema)
	for _, is := range e.Issues {
		if is.Path == "" {
			fmt.Fprintf(&b, " %s;", is.Msg)
		} else {
			fmt.Fprintf(&b, " %s: %s;", is.Path, is.Msg)
		}
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Validate checks node against the schema. A nil error means the document
// conforms; otherwise the error is a *ValidationError naming each
// offending path.
func (s *Schema) Validate(node *tree.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.ctx.Encode(tree.ToGo(node))
	if err := data.Err(); err != nil {
		return fmt.Errorf("schema: encode document: %w", err)
	}
	err := s.val.Unify(data).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	verr := &ValidationError{Schema: s.name}
	for _, ce := range cueerrors.Errors(err) {
		format, args := ce.Msg()
		verr.Issues = append(verr.Issues, Issue{
			Path: strings.Join(ce.Path(), "."),
			Msg:  fmt.Sprintf(format, args...),
		})
	}
	log.Debugf("%d issue(s) validating against %s", len(verr.Issues), s.name)
	return verr
}
