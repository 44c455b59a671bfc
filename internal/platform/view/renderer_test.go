package view

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/flosch/pongo2/v6"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(map[string]any{"brand": "PranaCare", "tagline": "Medical Yoga & Well-Being"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestRenderer_Landing(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	err := r.Render(&buf, "landing.html", map[string]any{
		"csrf":      "tok123",
		"deep_link": "https://clinic.example/onboarding?qr=1",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PranaCare", `value="tok123"`, "https://clinic.example/onboarding?qr=1", "/onboarding/scanned"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestRenderer_IdentitySkipToggle(t *testing.T) {
	r := newTestRenderer(t)
	for _, allow := range []bool{true, false} {
		var buf bytes.Buffer
		err := r.Render(&buf, "identity.html", pongo2.Context{
			"google_client_id": "cid",
			"allow_skip":       allow,
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.Contains(buf.String(), "/identity/skip"); got != allow {
			t.Errorf("allow_skip=%v: skip form present=%v", allow, got)
		}
	}
}

func TestRenderer_DoneStripsMarkup(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	rows := []struct{ Label, Value string }{
		{"Reason", "<img src=x onerror=alert(1)>Knee"},
	}
	if err := r.Render(&buf, "done.html", map[string]any{"rows": rows}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "onerror") {
		t.Error("expected markup to be stripped")
	}
	if !strings.Contains(out, "Knee") {
		t.Error("expected text to be kept")
	}
}

func TestRenderer_EscapesFormValues(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	sections := []map[string]any{{
		"Title": "About you",
		"Fields": []map[string]any{{
			"Name": "fullName", "Label": "Full name", "Type": "text",
			"Value": `"><script>x</script>`,
		}},
	}}
	if err := r.Render(&buf, "form.html", map[string]any{"sections": sections}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "<script>x</script>") {
		t.Error("expected value to be escaped")
	}
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)
	if err := r.Render(&bytes.Buffer{}, "missing.html", nil, nil); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestRenderer_RejectsUnsupportedData(t *testing.T) {
	r := newTestRenderer(t)
	if err := r.Render(&bytes.Buffer{}, "landing.html", 42, nil); err == nil {
		t.Error("expected error for unsupported data")
	}
}

func TestStaticFS(t *testing.T) {
	for _, name := range []string{"app.css", "app.js"} {
		if _, err := fs.Stat(StaticFS(), name); err != nil {
			t.Errorf("expected %s in static fs: %v", name, err)
		}
	}
}
