package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/spec-kit/case-service/internal/config"
)

// deniedExtensions blocks executable and script payloads regardless of the
// declared MIME type.
var deniedExtensions = map[string]bool{
	"exe": true, "bat": true, "cmd": true, "com": true, "sh": true,
	"js": true, "jar": true, "dll": true, "msi": true, "scr": true,
	"vbs": true, "ps1": true, "php": true, "pl": true, "cgi": true,
}

// allowedExtensions maps each accepted extension to its permitted MIME types.
// The modern Office formats additionally permit application/zip because they
// are ZIP containers and clients frequently declare them as such.
var allowedExtensions = map[string][]string{
	"jpg":  {"image/jpeg"},
	"jpeg": {"image/jpeg"},
	"png":  {"image/png"},
	"gif":  {"image/gif"},
	"webp": {"image/webp"},
	"bmp":  {"image/bmp"},
	"svg":  {"image/svg+xml"},
	"pdf":  {"application/pdf"},
	"txt":  {"text/plain"},
	"csv":  {"text/csv", "text/plain"},
	"doc":  {"application/msword"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	"xls":  {"application/vnd.ms-excel"},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	"ppt":  {"application/vnd.ms-powerpoint"},
	"pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", "application/zip"},
	"zip":  {"application/zip", "application/x-zip-compressed"},
	"rar":  {"application/vnd.rar", "application/x-rar-compressed"},
	"odt":  {"application/vnd.oasis.opendocument.text"},
	"ods":  {"application/vnd.oasis.opendocument.spreadsheet"},
	"eml":  {"message/rfc822"},
}

// ooxmlExtensions are ZIP containers accepted when content sniffing reports
// application/zip.
var ooxmlExtensions = map[string]bool{"docx": true, "xlsx": true, "pptx": true}

// Result reports a validation outcome. Reason is a human-readable rejection
// message; empty when OK.
type Result struct {
	OK     bool
	Reason string
}

func accepted() Result {
	return Result{OK: true}
}

func rejected(reason string) Result {
	return Result{OK: false, Reason: reason}
}

// Validator checks upload metadata and content against the attachment policy.
type Validator struct {
	maxImageBytes int64
	maxFileBytes  int64
}

// NewValidator applies configured size caps, falling back to the defaults
// (5 MB images, 10 MB otherwise).
func NewValidator(cfg config.UploadConfig) *Validator {
	v := &Validator{
		maxImageBytes: cfg.MaxImageBytes,
		maxFileBytes:  cfg.MaxFileBytes,
	}
	if v.maxImageBytes <= 0 {
		v.maxImageBytes = 5 * 1024 * 1024
	}
	if v.maxFileBytes <= 0 {
		v.maxFileBytes = 10 * 1024 * 1024
	}
	return v
}

// Validate checks filename, declared size and declared MIME type. It never
// reads content; see VerifyContent for the sniffing pass.
func (v *Validator) Validate(filename string, sizeBytes int64, mimeType string) Result {
	ext := extensionOf(filename)
	if ext == "" {
		return rejected("el archivo no tiene extensión")
	}
	if deniedExtensions[ext] {
		return rejected(fmt.Sprintf("extensión no permitida: .%s", ext))
	}
	permitted, ok := allowedExtensions[ext]
	if !ok {
		return rejected(fmt.Sprintf("tipo de archivo no admitido: .%s", ext))
	}
	if hasDeniedDoubleExtension(filename) {
		return rejected("nombre de archivo con doble extensión sospechosa")
	}
	if sizeBytes <= 0 {
		return rejected("el archivo está vacío")
	}
	limit := v.maxFileBytes
	if strings.HasPrefix(mimeType, "image/") {
		limit = v.maxImageBytes
	}
	if sizeBytes > limit {
		return rejected(fmt.Sprintf("el archivo supera el tamaño máximo de %d MB", limit/(1024*1024)))
	}
	if !containsMime(permitted, mimeType) {
		return rejected(fmt.Sprintf("el tipo MIME %s no corresponde a la extensión .%s", mimeType, ext))
	}
	return accepted()
}

// VerifyContent re-derives the MIME type from the first bytes of the upload.
// Accepts when the sniffed type is permitted for the extension, when a ZIP
// signature backs a modern Office extension, or when the originally claimed
// type is itself permitted.
func (v *Validator) VerifyContent(filename, claimedMime string, head []byte) Result {
	ext := extensionOf(filename)
	permitted, ok := allowedExtensions[ext]
	if !ok {
		return rejected(fmt.Sprintf("tipo de archivo no admitido: .%s", ext))
	}

	sniffed := mimetype.Detect(head).String()
	if i := strings.Index(sniffed, ";"); i >= 0 {
		sniffed = strings.TrimSpace(sniffed[:i])
	}

	if containsMime(permitted, sniffed) {
		return accepted()
	}
	if sniffed == "application/zip" && ooxmlExtensions[ext] {
		return accepted()
	}
	if containsMime(permitted, claimedMime) {
		return accepted()
	}
	return rejected(fmt.Sprintf("el contenido del archivo (%s) no corresponde a la extensión .%s", sniffed, ext))
}

// SanitizeFilename strips directory components, null bytes and traversal
// sequences, replaces anything outside [a-zA-Z0-9._-], and truncates the
// result to 255 bytes while preserving the extension.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "../", "")
	name = strings.ReplaceAll(name, "..\\", "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))

	var b strings.Builder
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '.', ch == '_', ch == '-':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	name = b.String()
	if name == "" || name == "." || name == ".." {
		return "archivo"
	}

	const maxLen = 255
	if len(name) <= maxLen {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= maxLen {
		return name[:maxLen]
	}
	stem := name[:len(name)-len(ext)]
	return stem[:maxLen-len(ext)] + ext
}

func extensionOf(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext
}

// hasDeniedDoubleExtension flags names like invoice.pdf.exe where any
// dot-separated segment after the first matches the deny-list.
func hasDeniedDoubleExtension(filename string) bool {
	parts := strings.Split(strings.ToLower(filepath.Base(filename)), ".")
	if len(parts) <= 2 {
		return false
	}
	for _, segment := range parts[1:] {
		if deniedExtensions[segment] {
			return true
		}
	}
	return false
}

func containsMime(permitted []string, mime string) bool {
	for _, candidate := range permitted {
		if strings.EqualFold(candidate, mime) {
			return true
		}
	}
	return false
}
