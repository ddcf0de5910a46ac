package theme

import "testing"

func TestBrowserTypeColor(t *testing.T) {
	tests := []struct {
		browserType string
		want        string
	}{
		{"libcef", string(ColorLibcef)},
		{"Electron", string(ColorElectron)},
		{"NWJS", string(ColorNWJS)},
		{"CefSharp", string(ColorCefSharp)},
		{"MiniBlink", string(ColorMiniBlink)},
		{"Chrome/Chromium", string(ColorChromium)},
		{"Edge", string(ColorEdge)},
		{"Firefox", string(ColorFirefox)},
		{"其他浏览器", string(ColorDefault)},
		{"", string(ColorDefault)},
	}
	for _, tt := range tests {
		if got := string(BrowserTypeColor(tt.browserType)); got != tt.want {
			t.Errorf("BrowserTypeColor(%q) = %s, want %s", tt.browserType, got, tt.want)
		}
	}
}

func TestBrowserGlyph(t *testing.T) {
	if got := BrowserGlyph("Electron", ""); got != "□" {
		t.Errorf("missing icon glyph = %q, want □", got)
	}
	if got := BrowserGlyph("Electron", "data:image/png;base64,xx"); got != "◆" {
		t.Errorf("known type glyph = %q, want ◆", got)
	}
	if got := BrowserGlyph("未知", "data:image/png;base64,xx"); got != "◇" {
		t.Errorf("unknown type glyph = %q, want ◇", got)
	}
}
