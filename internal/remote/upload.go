package remote

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"slices"
)

// multipartBody encodes files under the "files" field. Names are written in
// sorted order so that the server combines them deterministically.
func multipartBody(files map[string]io.Reader) (*bytes.Buffer, string, error) {
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no files to upload")
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := io.Copy(part, files[name]); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
