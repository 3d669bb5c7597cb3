package handler

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	lookup := LookupFunc(func(context.Context, string, string) (bool, error) { return true, nil })
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"source ok", Request{Content: []byte(""), Language: "en", Source: true}, false},
		{"target ok", Request{Content: []byte("a=b"), Language: "fr", Resource: "app", Lookup: lookup}, false},
		{"no content", Request{Language: "en", Source: true}, true},
		{"no language", Request{Content: []byte("a=b"), Source: true}, true},
		{"bad language", Request{Content: []byte("a=b"), Language: "not a tag!", Source: true}, true},
		{"target without resource", Request{Content: []byte("a=b"), Language: "fr", Lookup: lookup}, true},
		{"target without lookup", Request{Content: []byte("a=b"), Language: "fr", Resource: "app"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrPrecondition) {
					t.Fatalf("Validate() = %v, want ErrPrecondition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestDecodeContentRejectsInvalidUTF8(t *testing.T) {
	req := Request{Resource: "app", Content: []byte("a=1\nb=\xff\n")}
	_, err := req.DecodeContent()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("DecodeContent() error = %v, want *ParseError", err)
	}
	if perr.Line != 2 {
		t.Errorf("ParseError.Line = %d, want 2", perr.Line)
	}
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("error does not wrap ErrEncoding: %v", err)
	}
	if !strings.Contains(err.Error(), "app line 2") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDiagnostics(t *testing.T) {
	var d Diagnostics
	d.Add(3, KindMalformedLine, "no separator in %q", "junk")
	d.Add(7, KindDuplicateKey, "key %q", "a")
	d.Add(9, KindMalformedLine, "again")

	if got := d.Count(KindMalformedLine); got != 2 {
		t.Errorf("Count(malformed) = %d, want 2", got)
	}
	if got := d[0].String(); got != `line 3: malformed-line: no separator in "junk"` {
		t.Errorf("String() = %q", got)
	}
}

func TestCompileErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := error(&CompileError{Hash: "abc", Err: base})
	if !errors.Is(err, base) {
		t.Fatal("CompileError does not unwrap")
	}
	if got := err.Error(); got != "compile placeholder abc: boom" {
		t.Fatalf("Error() = %q", got)
	}
}
