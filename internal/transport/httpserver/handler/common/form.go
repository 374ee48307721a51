package common

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"legacy-keeper-go/internal/domain/attachment"
)

const maxMultipartMemory = 8 << 20

var attachmentParts = []attachment.Kind{attachment.KindProfilePhoto, attachment.KindGovernmentID}

func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// ReadMultipart parses a multipart body of at most maxBytes and returns the
// attachment parts it carries. Missing parts are skipped.
func ReadMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]attachment.File, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, err
	}

	files := make([]attachment.File, 0, len(attachmentParts))
	for _, kind := range attachmentParts {
		file, header, err := r.FormFile(string(kind))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, err
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		files = append(files, attachment.File{
			Kind:        kind,
			Filename:    header.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return files, nil
}

func FormString(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func FormBool(r *http.Request, key string) bool {
	parsed, err := strconv.ParseBool(FormString(r, key))
	return err == nil && parsed
}

// FormList accepts repeated keys as well as comma separated values.
func FormList(r *http.Request, key string) []string {
	if r.MultipartForm == nil {
		return ParseCSV(r.FormValue(key))
	}
	return ParseCSV(strings.Join(r.MultipartForm.Value[key], ","))
}

func ParseCSV(value string) []string {
	parts := strings.Split(value, ",")
	seen := make(map[string]struct{}, len(parts))
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
