package hx

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
)

func TestIsHTMX(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if IsHTMX(req) {
		t.Error("plain request reported as HTMX")
	}
	req.Header.Set("HX-Request", "true")
	if !IsHTMX(req) {
		t.Error("HX-Request: true not detected")
	}
}

func TestBuildTriggerHeader(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		data    map[string]any
		want    string
	}{
		{"empty", "", nil, ""},
		{"simple", "toys:changed", nil, "toys:changed"},
		{"with data", "toys:changed", map[string]any{"id": "5"}, `{"toys:changed":{"id":"5"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildTriggerHeader(tt.trigger, tt.data); got != tt.want {
				t.Errorf("BuildTriggerHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTriggerHeader(t *testing.T) {
	tests := []struct {
		header string
		want   []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b", []string{"a", "b"}},
		{`{"b":true,"a":{"x":{"nested":1}}}`, []string{"a", "b"}},
		{`{broken`, nil},
	}

	for _, tt := range tests {
		got := parseTriggerHeader(tt.header)
		if len(got) != len(tt.want) {
			t.Errorf("parseTriggerHeader(%q) = %v, want %v", tt.header, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseTriggerHeader(%q) = %v, want %v", tt.header, got, tt.want)
			}
		}
	}
}

func TestFlashes(t *testing.T) {
	if RenderFlashesOOB(nil) != "" {
		t.Error("no flashes should render nothing")
	}

	html := RenderFlashesOOB([]Flash{
		{Level: FlashError, Message: "Could not reach the toy server"},
		{Level: FlashInfo, Message: "<b>"},
	})
	if !bytes.Contains([]byte(html), []byte(`hx-swap-oob="beforeend"`)) {
		t.Errorf("missing OOB swap: %q", html)
	}
	if bytes.Contains([]byte(html), []byte("<b>")) {
		t.Error("flash message must be escaped")
	}

	flashes := parseFlashesFromHTML(html)
	if len(flashes) != 2 || flashes[0].Level != FlashError || flashes[0].Message != "Could not reach the toy server" {
		t.Errorf("parsed flashes = %+v", flashes)
	}
}

func TestToastContainer(t *testing.T) {
	var buf bytes.Buffer
	if err := ToastContainer().Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `<div id="toasts" class="toast-container"></div>` {
		t.Errorf("ToastContainer() = %q", buf.String())
	}
}
