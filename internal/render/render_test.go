package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{" table ", FormatTable, false},
		{"yaml", FormatYAML, false},
		{"", "", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	_, err := ParseFormat("csv")
	if err == nil || !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error should list valid formats, got: %v", err)
	}
}

type versionView struct {
	Version string    `json:"version" yaml:"version"`
	URL     string    `json:"url,omitempty" yaml:"url,omitempty"`
	Checked time.Time `json:"last_checked" yaml:"last_checked"`
	Err     error     `json:"-" yaml:"-"`
	hidden  string
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, &buf)

	if err := r.Render(versionView{Version: "v5"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": "v5"`) {
		t.Errorf("JSON output missing version: %s", buf.String())
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, &buf)

	if err := r.Render(map[string]string{"version": "v5"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "version: v5") {
		t.Errorf("YAML output missing version: %s", buf.String())
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	checked := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	data := &versionView{Version: "v5", Checked: checked, Err: errors.New("timeout"), hidden: "x"}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"version:", "v5", "last_checked:", "2026-10-19T08:30:00Z", "timeout"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "hidden") {
		t.Errorf("unexported field rendered:\n%s", got)
	}
}

func TestRenderer_Table_ZeroTime(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render(versionView{Version: "v1"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "last_checked:  -") {
		t.Errorf("zero time should render as '-':\n%s", buf.String())
	}
}

func TestRenderer_Table_Slice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	data := []versionView{{Version: "v1"}, {Version: "v2"}}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "VERSION") || !strings.Contains(got, "LAST_CHECKED") {
		t.Errorf("table output missing headers:\n%s", got)
	}
	if !strings.Contains(got, "v1") || !strings.Contains(got, "v2") {
		t.Errorf("table output missing rows:\n%s", got)
	}
}

func TestRenderer_Table_SortedMap(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render(map[string]int{"timeout": 2, "bad_response": 1}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	if strings.Index(got, "bad_response") > strings.Index(got, "timeout") {
		t.Errorf("map keys not sorted:\n%s", got)
	}
}

func TestRenderer_Table_EmptyAndScalarSlices(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render([]string{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("empty slice should show '(no results)', got: %s", buf.String())
	}

	buf.Reset()
	if err := r.Render([]string{"a", "b"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "a\nb\n" {
		t.Errorf("scalar slice = %q", buf.String())
	}
}
