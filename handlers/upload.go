package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// readUpload reads the multipart "file" field fully into memory.
func readUpload(e *core.RequestEvent, maxBytes int64) (string, []byte, error) {
	e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, maxBytes)
	if err := e.Request.ParseMultipartForm(maxBytes); err != nil {
		return "", nil, fmt.Errorf("File too large or invalid form data (max %d MB)", maxBytes>>20)
	}

	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("Please select a file to upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("Failed to read the uploaded file")
	}
	return header.Filename, data, nil
}

// isJSONBody reports whether the request body is JSON.
func isJSONBody(e *core.RequestEvent) bool {
	mediaType, _, _ := mime.ParseMediaType(e.Request.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// decodeJSON decodes an optional JSON body. An empty body leaves dst alone.
func decodeJSON(e *core.RequestEvent, dst any) error {
	err := json.NewDecoder(e.Request.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}

// formFields returns the non-empty form values whose name starts with prefix,
// keyed by the rest of the name.
func formFields(e *core.RequestEvent, prefix string) map[string]string {
	out := map[string]string{}
	for name, values := range e.Request.PostForm {
		key, ok := strings.CutPrefix(name, prefix)
		if !ok || len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		out[key] = strings.TrimSpace(values[0])
	}
	return out
}
