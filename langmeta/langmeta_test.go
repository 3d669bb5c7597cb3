package langmeta

import (
	"testing"

	"golang.org/x/text/language"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
		{in: "not a tag", want: "not a tag"},
	}

	for _, tc := range cases {
		if got := canonicalize(tc.in); got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFlagFromRegion(t *testing.T) {
	if got, want := flagFromRegion("us"), "\U0001F1FA\U0001F1F8"; got != want {
		t.Fatalf("flagFromRegion(us) = %q, want %q", got, want)
	}
	if got := flagFromRegion("USA"); got != "" {
		t.Fatalf("flagFromRegion(USA) = %q, want empty", got)
	}
	if got := flagFromRegion("1A"); got != "" {
		t.Fatalf("flagFromRegion(1A) = %q, want empty", got)
	}
}

func TestResolve(t *testing.T) {
	t.Run("english names", func(t *testing.T) {
		got := Resolve("de", language.English)
		if got.Name != "German" || got.Native != "Deutsch" {
			t.Fatalf("Resolve(de) = %#v", got)
		}
		if got.Flag != "\U0001F1E9\U0001F1EA" {
			t.Fatalf("Resolve(de).Flag = %q", got.Flag)
		}
		if got.Label() != "German (Deutsch)" {
			t.Fatalf("Label() = %q", got.Label())
		}
	})

	t.Run("normalized code", func(t *testing.T) {
		got := Resolve("fr_ca", language.English)
		if got.Flag != "\U0001F1E8\U0001F1E6" {
			t.Fatalf("Resolve(fr_ca).Flag = %q, want CA flag", got.Flag)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("not a tag", language.English)
		if got.Name != "not a tag" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestLabelSameName(t *testing.T) {
	if got := (Meta{Name: "English", Native: "English"}).Label(); got != "English" {
		t.Fatalf("Label() = %q, want English", got)
	}
}
