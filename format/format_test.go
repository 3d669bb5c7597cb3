package format

import (
	"context"
	"errors"
	"testing"

	"github.com/minios-linux/txfmt/handler"
	"github.com/minios-linux/txfmt/stringset"
)

func TestParseAndFromPath(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"properties", Properties},
		{" Joomla ", JoomlaINI},
		{"ini", JoomlaINI},
	}
	for _, tc := range tests {
		got, err := Parse(tc.name)
		if err != nil || got != tc.want {
			t.Errorf("Parse(%q) = %v, %v; want %v", tc.name, got, err, tc.want)
		}
	}
	if _, err := Parse("xliff"); err == nil {
		t.Error("Parse(xliff) succeeded, want error")
	}

	if f, err := FromPath("i18n/Messages_fr.PROPERTIES"); err != nil || f != Properties {
		t.Errorf("FromPath(.PROPERTIES) = %v, %v", f, err)
	}
	if f, err := FromPath("language/en-GB/en-GB.com_demo.ini"); err != nil || f != JoomlaINI {
		t.Errorf("FromPath(.ini) = %v, %v", f, err)
	}
	if _, err := FromPath("strings.xml"); err == nil {
		t.Error("FromPath(.xml) succeeded, want error")
	}
}

func TestCodecDispatch(t *testing.T) {
	tests := []struct {
		f       Format
		line    string
		key     string
		value   string
		comment string
	}{
		{Properties, "a:b", "a", "b", "! note"},
		{JoomlaINI, `A="b:c"`, "A", "b:c", "; note"},
	}
	for _, tc := range tests {
		c, err := tc.f.Codec()
		if err != nil {
			t.Fatalf("%v.Codec(): %v", tc.f, err)
		}
		k, v, ok := c.Split(tc.line)
		if !ok || k != tc.key || v != tc.value {
			t.Errorf("%v Split(%q) = %q, %q, %v", tc.f, tc.line, k, v, ok)
		}
		if !c.IsComment(tc.comment) {
			t.Errorf("%v IsComment(%q) = false", tc.f, tc.comment)
		}
	}
	if _, err := Unknown.Codec(); err == nil {
		t.Error("Unknown.Codec() succeeded, want error")
	}
}

func TestExtractAndCompileDispatch(t *testing.T) {
	tests := []struct {
		f    Format
		src  string
		want string
	}{
		{Properties, "hello=Hello\nbye=Bye\n", "hello=Salut\n# bye=Bye\n"},
		{JoomlaINI, "; j\nHELLO=\"Hello\"\nBYE=\"Bye\"\n", "; j\nHELLO=\"Salut\"\n; BYE=\"Bye\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.f.String(), func(t *testing.T) {
			res, err := Extract(context.Background(), tc.f, handler.Request{
				Resource: "app", Language: "en", Content: []byte(tc.src), Source: true,
			})
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			target := stringset.NewSet()
			target.Add(stringset.New(res.Strings.Strings[0].Source, "Salut"))

			out, err := Compile(tc.f, res.Template, target, res.Strings)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if string(out) != tc.want {
				t.Fatalf("Compile() = %q, want %q", out, tc.want)
			}
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := Extract(context.Background(), Unknown, handler.Request{})
	if !errors.Is(err, handler.ErrPrecondition) {
		t.Errorf("Extract(Unknown) error = %v, want ErrPrecondition", err)
	}
	_, err = Compile(Unknown, "", nil, nil)
	var cerr *handler.CompileError
	if !errors.As(err, &cerr) {
		t.Errorf("Compile(Unknown) error = %v, want *handler.CompileError", err)
	}
}
