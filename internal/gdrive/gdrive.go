// Package gdrive resolves Google Drive sharable links to file ids and builds
// the download/view URL variants the pipeline needs.
package gdrive

import "regexp"

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/open\?id=([a-zA-Z0-9_-]+)`),
	// Last resort: Drive file ids are long opaque tokens, so any sufficiently
	// long run of URL-safe characters is taken as the id.
	regexp.MustCompile(`([a-zA-Z0-9_-]{25,})`),
}

// ExtractFileID applies an ordered sequence of pattern matches against known
// sharable-link shapes and returns the first match. A miss is not an error:
// it signals an unrecognized host and the caller should open the URL directly.
func ExtractFileID(url string) (string, bool) {
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(url); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}

	return "", false
}

// DownloadURL builds the direct-download variant of a Drive link. The confirm
// and force parameters bypass the large-file warning interstitial.
func DownloadURL(fileID string) string {
	return "https://drive.google.com/uc?export=download&id=" + fileID + "&confirm=t&force=true"
}

// ViewURL builds the human-viewable variant of a Drive link, used as the
// recovery path when the direct download fails.
func ViewURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view?usp=sharing"
}
