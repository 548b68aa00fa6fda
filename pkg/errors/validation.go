package errors

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	// MaxQueryLength bounds a document query, matching the store's own limit.
	MaxQueryLength = 1000

	maxIDLength   = 256
	maxPathLength = 500
)

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidateID checks a domain or document id before it goes into a URL path.
// Ids are opaque but carry no separators or control characters.
func ValidateID(id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidInput, "id cannot be empty")
	case len(id) > maxIDLength:
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", maxIDLength)
	case hasControl(id):
		return New(ErrCodeInvalidInput, "id contains invalid control characters")
	case strings.ContainsAny(id, "/\\?#|"), strings.Contains(id, ".."):
		return New(ErrCodeInvalidInput, "id contains invalid characters: %q", id)
	}
	return nil
}

// ValidatePath checks a document path relative to the store's upload folder.
func ValidatePath(path string) error {
	var reason string
	switch {
	case path == "":
		reason = "cannot be empty"
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case hasControl(path):
		reason = "contains invalid characters"
	case strings.HasPrefix(path, "/"):
		reason = "must be relative"
	case strings.Contains(path, ".."):
		reason = "cannot contain .."
	case strings.Contains(path, "\\"):
		reason = "cannot contain backslashes"
	default:
		return nil
	}
	return New(ErrCodeInvalidPath, "path %s", reason)
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must be an http or https address: %q", rawURL)
	}
	return nil
}

// ValidateQuery checks a free-text document query.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return New(ErrCodeInvalidInput, "query is required")
	}
	if len(q) > MaxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (maximum %d characters)", MaxQueryLength)
	}
	return nil
}

// uploadExtensions are the document types the store accepts.
var uploadExtensions = map[string]bool{".pdf": true, ".doc": true, ".docx": true, ".txt": true}

// ValidateUploadName checks the filename of a document upload.
func ValidateUploadName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "no file selected")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "filename cannot contain path separators")
	}
	dot := strings.LastIndex(name, ".")
	if dot < 0 || !uploadExtensions[strings.ToLower(name[dot:])] {
		return New(ErrCodeUnsupported, "file type of %q not supported (pdf, doc, docx, txt)", name)
	}
	return nil
}
