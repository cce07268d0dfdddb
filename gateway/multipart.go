package gateway

import (
	"bytes"
	"mime/multipart"
	"sort"
)

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field    string
	FileName string
	Content  []byte
}

// EncodeMultipart builds a replayable multipart/form-data body. Fields are
// written in key order.
func EncodeMultipart(fields map[string]string, files ...FormFile) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
