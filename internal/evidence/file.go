// Package evidence turns a user-selected proof-of-purchase file into the
// size-bounded, base64 FilePayload that travels inside a warranty submission.
//
// Images are decoded, fitted inside a Profile's bounds and re-encoded as
// JPEG. Everything else, and every image that cannot be processed, is sent
// as the original bytes. Normalization never fails.
package evidence

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// DefaultMIMEType is declared for files whose type is unknown.
const DefaultMIMEType = "application/octet-stream"

// JPEGMIMEType is the type of every successfully normalized image.
const JPEGMIMEType = "image/jpeg"

// File is a raw selection: a name, the declared type, and its bytes.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Empty reports a zero-byte selection. Callers treat it as "no evidence".
func (f File) Empty() bool {
	return len(f.Data) == 0
}

// IsImage reports whether the declared type is in the image/ family.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// DetectMIME picks a declared type for files that arrive without one, such
// as files read from disk. The extension wins over content sniffing.
func DetectMIME(name string, data []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if byExt := mime.TypeByExtension(strings.ToLower(ext)); byExt != "" {
			return stripParams(byExt)
		}
	}
	if len(data) == 0 {
		return ""
	}
	return stripParams(http.DetectContentType(data))
}

func stripParams(mimeType string) string {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	return mimeType
}

// Passthrough is the universally supported representation: the original
// bytes, base64-encoded, under the declared type.
func Passthrough(f File) domain.FilePayload {
	mimeType := strings.TrimSpace(f.MimeType)
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return domain.FilePayload{
		Name:     f.Name,
		MimeType: mimeType,
		Content:  base64.StdEncoding.EncodeToString(f.Data),
	}
}

// decodeDataURL returns the bytes after the first comma of a base64 data URL.
// A string without a comma is decoded whole.
func decodeDataURL(dataURL string) ([]byte, error) {
	payload := dataURL
	if comma := strings.IndexByte(dataURL, ','); comma >= 0 {
		payload = dataURL[comma+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}
