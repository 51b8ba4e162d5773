package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectReader struct {
	objects map[string][]byte
	err     error
}

func (f fakeObjectReader) ReadObject(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return data, nil
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml":            `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestTextFromBytesPlain(t *testing.T) {
	text, err := TextFromBytes("cv.txt", []byte("React and PostgreSQL experience"))
	require.NoError(t, err)
	assert.Equal(t, "React and PostgreSQL experience", text)
}

func TestTextFromBytesReplacesInvalidUTF8(t *testing.T) {
	text, err := TextFromBytes("cv", []byte{'G', 'o', 0xff})
	require.NoError(t, err)
	assert.Equal(t, "Go\uFFFD", text)
}

func TestTextFromBytesDocx(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>Senior Engineer</w:t></w:r></w:p><w:p><w:r><w:t>Go &amp; Kubernetes</w:t></w:r></w:p>`)

	text, err := TextFromBytes("Resume.DOCX", data)
	require.NoError(t, err)
	assert.Contains(t, text, "Senior Engineer")
	assert.Contains(t, text, "Go & Kubernetes")
}

func TestTextFromBytesCorruptPDF(t *testing.T) {
	_, err := TextFromBytes("cv.pdf", []byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestExtractorFallsBackToPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		store    fakeObjectReader
		key      string
		fileName string
	}{
		{name: "missing object", store: fakeObjectReader{}, key: "resumes/1/x.pdf", fileName: "x.pdf"},
		{name: "storage error", store: fakeObjectReader{err: errors.New("timeout")}, key: "k", fileName: "x.txt"},
		{name: "corrupt pdf", store: fakeObjectReader{objects: map[string][]byte{"k": []byte("%PDF-garbage")}}, key: "k", fileName: "x.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, fellBack := NewExtractor(tt.store, nil).Extract(context.Background(), tt.key, tt.fileName)
			assert.True(t, fellBack)
			assert.Equal(t, PlaceholderText, text)
		})
	}
}

func TestExtractorReadsStoredText(t *testing.T) {
	store := fakeObjectReader{objects: map[string][]byte{"resumes/2/cv.md": []byte("# Jane\nPython, Docker")}}

	text, fellBack := NewExtractor(store, nil).Extract(context.Background(), "resumes/2/cv.md", "cv.md")

	assert.False(t, fellBack)
	assert.Equal(t, "# Jane\nPython, Docker", text)
}
