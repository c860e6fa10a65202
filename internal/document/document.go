package document

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Kind identifies which backend counting procedure a document belongs to.
// It does not change the shape of the download pipeline.
type Kind string

const (
	KindNote     Kind = "note"
	KindPYQ      Kind = "pyq"
	KindSyllabus Kind = "syllabus"
)

// TrackRPC returns the name of the rich tracking procedure for this kind.
func (k Kind) TrackRPC() string {
	switch k {
	case KindNote:
		return "track_note_download"
	case KindPYQ:
		return "track_pyq_download"
	case KindSyllabus:
		return "track_syllabus_download"
	}

	return ""
}

// IncrementRPC returns the name of the simple increment procedure for this kind.
func (k Kind) IncrementRPC() string {
	switch k {
	case KindNote:
		return "increment_download_count"
	case KindPYQ:
		return "increment_pyq_download_count"
	case KindSyllabus:
		return "increment_syllabus_download_count"
	}

	return ""
}

// TrackParam returns the document-id parameter name of the rich tracking
// procedure.
func (k Kind) TrackParam() string {
	switch k {
	case KindNote:
		return "p_note_id"
	case KindPYQ:
		return "p_pyq_id"
	case KindSyllabus:
		return "p_syllabus_id"
	}

	return ""
}

// IncrementParam returns the document-id parameter name of the increment
// procedure. The notes increment predates the richer contract and takes an
// unprefixed name.
func (k Kind) IncrementParam() string {
	switch k {
	case KindNote:
		return "note_id"
	case KindPYQ:
		return "p_pyq_id"
	case KindSyllabus:
		return "p_syllabus_id"
	}

	return ""
}

// Table returns the backend table holding the authoritative download_count.
func (k Kind) Table() string {
	switch k {
	case KindNote:
		return "notes"
	case KindPYQ:
		return "pyq_documents"
	case KindSyllabus:
		return "syllabus_documents"
	}

	return ""
}

// Document is a downloadable asset. DownloadCount is a cached copy of the
// server-maintained value; the server stays the source of truth.
type Document struct {
	ID            string
	Title         string
	SourceURL     string
	FileType      string
	DownloadCount int64
	Kind          Kind
}

var (
	titleStrip    = regexp.MustCompile(`[^\w\d\s-]`)
	titleCollapse = regexp.MustCompile(`\s+`)
)

const defaultExtension = "pdf"

// Slug sanitizes a title into a filesystem-safe fragment: non-word characters
// stripped, whitespace collapsed to hyphens, lowercased.
func Slug(title string) string {
	clean := titleStrip.ReplaceAllString(title, "")
	clean = strings.TrimSpace(clean)
	clean = titleCollapse.ReplaceAllString(clean, "-")

	return strings.ToLower(clean)
}

// Extension resolves the file extension for the document: the FileType hint
// wins, then the URL path extension, then "pdf".
func (d *Document) Extension() string {
	if d.FileType != "" {
		return strings.ToLower(strings.TrimPrefix(d.FileType, "."))
	}

	if u, err := url.Parse(d.SourceURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return strings.ToLower(strings.TrimPrefix(ext, "."))
		}
	}

	return defaultExtension
}

// FileName builds the persisted filename: <prefix><slug>.<ext>, lowercase.
func (d *Document) FileName(prefix string) string {
	return strings.ToLower(prefix + Slug(d.Title) + "." + d.Extension())
}

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"txt":  "text/plain",
}

// MIMEType maps an extension to a MIME type, defaulting to a generic stream.
func MIMEType(extension string) string {
	if mt, ok := mimeTypes[strings.ToLower(extension)]; ok {
		return mt
	}

	return "application/octet-stream"
}

// MIMEType resolves the MIME type for the document's extension.
func (d *Document) MIMEType() string {
	return MIMEType(d.Extension())
}
