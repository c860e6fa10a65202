package gdrive

import "testing"

func TestExtractFileID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{
			name:   "file path form",
			url:    "https://drive.google.com/file/d/ABCDEFGHIJKLMNOPQRSTUVWXY/view",
			wantID: "ABCDEFGHIJKLMNOPQRSTUVWXY",
			wantOK: true,
		},
		{
			name:   "query parameter form",
			url:    "https://drive.google.com/uc?id=1a2B3c4D5e&export=download",
			wantID: "1a2B3c4D5e",
			wantOK: true,
		},
		{
			name:   "shortened path form",
			url:    "https://docs.google.com/document/d/xYz_123-abc/edit",
			wantID: "xYz_123-abc",
			wantOK: true,
		},
		{
			name:   "open id form",
			url:    "https://drive.google.com/open?id=9Z8y7X6w5V",
			wantID: "9Z8y7X6w5V",
			wantOK: true,
		},
		{
			name:   "bare long token fallback",
			url:    "https://cdn.example.com/abcdefghijklmnopqrstuvwxyz0123456789",
			wantID: "abcdefghijklmnopqrstuvwxyz0123456789",
			wantOK: true,
		},
		{
			name:   "unrecognized host, short tokens",
			url:    "https://example.com/doc.pdf",
			wantOK: false,
		},
		{
			name:   "empty string",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractFileID(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ExtractFileID(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("ExtractFileID(%q) = %q, want %q", tt.url, id, tt.wantID)
			}
		})
	}
}

// Repeated calls over the same input must return the same id.
func TestExtractFileIDDeterministic(t *testing.T) {
	url := "https://drive.google.com/file/d/ABCDEFGHIJKLMNOPQRSTUVWXY/view"

	first, ok := ExtractFileID(url)
	if !ok {
		t.Fatal("expected a match")
	}

	for i := 0; i < 10; i++ {
		got, ok := ExtractFileID(url)
		if !ok || got != first {
			t.Fatalf("call %d: got (%q, %v), want (%q, true)", i, got, ok, first)
		}
	}
}

func TestDownloadURL(t *testing.T) {
	got := DownloadURL("abc123")
	want := "https://drive.google.com/uc?export=download&id=abc123&confirm=t&force=true"

	if got != want {
		t.Errorf("DownloadURL() = %q, want %q", got, want)
	}
}

func TestViewURL(t *testing.T) {
	got := ViewURL("abc123")
	want := "https://drive.google.com/file/d/abc123/view?usp=sharing"

	if got != want {
		t.Errorf("ViewURL() = %q, want %q", got, want)
	}
}
