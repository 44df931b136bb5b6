package security

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"campus-portal/internal/domain"
	"campus-portal/internal/observability"
)

// UploadPolicy bounds what a handler accepts from a multipart upload.
type UploadPolicy struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// extContentTypes maps allowed extensions to the content type the file's
// actual bytes must sniff as. Extensions absent from this table are
// rejected even if a policy lists them.
var extContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".txt":  "text/plain",
	".csv":  "text/plain",
}

// ValidateUpload checks an uploaded file against the policy. Checks run
// in order and short-circuit: transport status, declared size, file name
// extension (case-insensitive), and finally the sniffed content type of
// the actual bytes against the expected type for that extension. The last
// check defeats disguised-extension attacks where a file named photo.jpg
// carries, say, a PDF payload.
//
// transportErr is the error reported by the multipart layer (e.g. from
// http.Request.FormFile); it is surfaced verbatim as the reason.
func ValidateUpload(fh *multipart.FileHeader, transportErr error, policy UploadPolicy) error {
	if transportErr != nil {
		observability.UploadsRejectedTotal.WithLabelValues("transport").Inc()
		return &domain.UploadError{Reason: transportErr.Error()}
	}
	if fh == nil {
		observability.UploadsRejectedTotal.WithLabelValues("transport").Inc()
		return &domain.UploadError{Reason: "no file provided"}
	}

	if fh.Size > policy.MaxBytes {
		observability.UploadsRejectedTotal.WithLabelValues("size").Inc()
		return &domain.UploadError{
			Reason: fmt.Sprintf("file exceeds maximum size of %d bytes", policy.MaxBytes),
		}
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !extensionAllowed(ext, policy.AllowedExtensions) {
		observability.UploadsRejectedTotal.WithLabelValues("extension").Inc()
		return &domain.UploadError{
			Reason: fmt.Sprintf("file extension %q is not allowed", ext),
		}
	}

	expected, known := extContentTypes[ext]
	if !known {
		observability.UploadsRejectedTotal.WithLabelValues("content_type").Inc()
		return &domain.UploadError{
			Reason: fmt.Sprintf("no expected content type for extension %q", ext),
		}
	}

	detected, err := sniffContentType(fh)
	if err != nil {
		observability.UploadsRejectedTotal.WithLabelValues("transport").Inc()
		return &domain.UploadError{Reason: err.Error()}
	}
	if !strings.HasPrefix(detected, expected) {
		observability.UploadsRejectedTotal.WithLabelValues("content_type").Inc()
		return &domain.UploadError{
			Reason: fmt.Sprintf("content type %q does not match extension %q", detected, ext),
		}
	}

	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		a = strings.ToLower(a)
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if a == ext {
			return true
		}
	}
	return false
}

// sniffContentType reads the first 512 bytes of the upload and detects
// the content type from the actual bytes, not the declared header.
func sniffContentType(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("cannot open uploaded file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("cannot read uploaded file: %w", err)
	}

	return http.DetectContentType(buf[:n]), nil
}
