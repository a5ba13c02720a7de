package routepath_test

import (
	"testing"

	"github.com/hioload/httpd/routepath"
)

func TestNewRejectsMalformedPaths(t *testing.T) {
	for _, raw := range []string{"", "users", "/users/%20", "/sp ace", "/tab\t"} {
		if _, err := routepath.New(raw); err == nil {
			t.Errorf("New(%q): expected error, got nil", raw)
		}
	}
}

func TestNewAcceptsPermittedBytes(t *testing.T) {
	for _, raw := range []string{
		"/",
		"/users/:id",
		"/a-b_c.d~e",
		"/!$&'()*+,;=:@",
		"/pub/",
	} {
		if _, err := routepath.New(raw); err != nil {
			t.Errorf("New(%q): unexpected error %v", raw, err)
		}
	}
}

func TestPartsSegmentation(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"/", nil},
		{"/users", []string{"users"}},
		{"/users/:id/orders", []string{"users", ":id", "orders"}},
		// Trailing slash keeps a trailing empty segment so "/pub/" and
		// "/pub" stay distinct in the route tree.
		{"/pub/", []string{"pub", ""}},
	}
	for _, c := range cases {
		p, err := routepath.New(c.raw)
		if err != nil {
			t.Fatalf("New(%q): %v", c.raw, err)
		}
		got := p.Parts()
		if len(got) != len(c.want) {
			t.Errorf("Parts(%q) = %v, want %v", c.raw, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("Parts(%q)[%d] = %q, want %q", c.raw, i, got[i], c.want[i])
			}
		}
	}
}

func TestSegmentsMirrorsParts(t *testing.T) {
	p := routepath.MustNew("/users/:id")
	segs := routepath.Segments("/users/42")
	if len(segs) != len(p.Parts()) {
		t.Fatalf("Segments split %d segments, Parts split %d", len(segs), len(p.Parts()))
	}
	if segs[0] != "users" || segs[1] != "42" {
		t.Fatalf("unexpected segments %v", segs)
	}
}

func TestMustNewPanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustNew on invalid path did not panic")
		}
	}()
	routepath.MustNew("no-leading-slash")
}
