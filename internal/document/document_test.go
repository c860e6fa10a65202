package document

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "plain title",
			title: "Engineering Mathematics",
			want:  "engineering-mathematics",
		},
		{
			name:  "special characters stripped",
			title: "Unit 1: Laplace Transforms (2023)!",
			want:  "unit-1-laplace-transforms-2023",
		},
		{
			name:  "whitespace collapsed",
			title: "  Data   Structures \t Notes ",
			want:  "data-structures-notes",
		},
		{
			name:  "hyphens preserved",
			title: "End-Sem Paper",
			want:  "end-sem-paper",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.title); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestDocumentExtension(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{
			name: "file type hint wins",
			doc:  Document{FileType: "DOCX", SourceURL: "https://example.com/a.pdf"},
			want: "docx",
		},
		{
			name: "hint with leading dot",
			doc:  Document{FileType: ".pptx"},
			want: "pptx",
		},
		{
			name: "url path extension",
			doc:  Document{SourceURL: "https://example.com/papers/maths.PNG?x=1"},
			want: "png",
		},
		{
			name: "defaults to pdf",
			doc:  Document{SourceURL: "https://drive.google.com/file/d/abc/view"},
			want: "pdf",
		},
		{
			name: "unparseable url defaults to pdf",
			doc:  Document{SourceURL: "://not a url"},
			want: "pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.Extension(); got != tt.want {
				t.Errorf("Extension() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocumentFileName(t *testing.T) {
	doc := Document{Title: "Unit 2: Fourier Series", FileType: "pdf"}

	got := doc.FileName("CSE_sem3_")
	want := "cse_sem3_unit-2-fourier-series.pdf"

	if got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestMIMEType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"pdf", "application/pdf"},
		{"PDF", "application/pdf"},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"jpeg", "image/jpeg"},
		{"zip", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := MIMEType(tt.ext); got != tt.want {
			t.Errorf("MIMEType(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestKindRPCNames(t *testing.T) {
	tests := []struct {
		kind      Kind
		track     string
		increment string
		table     string
	}{
		{KindNote, "track_note_download", "increment_download_count", "notes"},
		{KindPYQ, "track_pyq_download", "increment_pyq_download_count", "pyq_documents"},
		{KindSyllabus, "track_syllabus_download", "increment_syllabus_download_count", "syllabus_documents"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.TrackRPC(); got != tt.track {
				t.Errorf("TrackRPC() = %q, want %q", got, tt.track)
			}
			if got := tt.kind.IncrementRPC(); got != tt.increment {
				t.Errorf("IncrementRPC() = %q, want %q", got, tt.increment)
			}
			if got := tt.kind.Table(); got != tt.table {
				t.Errorf("Table() = %q, want %q", got, tt.table)
			}
		})
	}
}
