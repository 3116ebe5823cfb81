package metadata

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// detectMimeType returns the mime type of the content from its magic numbers
func detectMimeType(content []byte) string {
	return mimetype.Detect(content).String()
}

// isMedia reports whether the content is an image, video or audio file rather than a
// metadata document. Many Aptos tokens point their uri straight at the artwork
func isMedia(content []byte) bool {
	mime := detectMimeType(content)
	return strings.HasPrefix(mime, "image/") ||
		strings.HasPrefix(mime, "video/") ||
		strings.HasPrefix(mime, "audio/")
}
