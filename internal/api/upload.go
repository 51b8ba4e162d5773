package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
)

// ObjectStore 是处理器依赖的对象存储能力。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

var (
	errMissingFile     = errors.New("missing file")
	errFileTooLarge    = errors.New("file too large")
	errUnsupportedType = errors.New("unsupported file type")
	errMaliciousFile   = errors.New("malicious file detected")
)

var (
	resumeExtensions = []string{".pdf", ".docx", ".doc", ".txt"}
	videoExtensions  = []string{".webm", ".mp4", ".mov"}
)

// uploadPolicy 描述一类上传文件的限制。
type uploadPolicy struct {
	maxBytes   int64
	extensions []string
	clamdAddr  string
}

// check 校验大小与扩展名，并在配置了 clamd 时扫描病毒。返回小写扩展名。
func (p uploadPolicy) check(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", errMissingFile
	}
	if p.maxBytes > 0 && file.Size > p.maxBytes {
		return "", errFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(p.extensions, ext) {
		return "", errUnsupportedType
	}
	if p.clamdAddr == "" {
		return ext, nil
	}
	if err := scanFile(p.clamdAddr, file); err != nil {
		return "", err
	}
	return ext, nil
}

func scanFile(clamdAddr string, file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()

	abortChan := make(chan bool)
	defer close(abortChan)
	scanChan, err := clamd.NewClamd(clamdAddr).ScanStream(reader, abortChan)
	if err != nil {
		return fmt.Errorf("scan upload: %w", err)
	}
	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}

// uploadError 将上传校验错误写成 400，其余写成 500。
func uploadError(err error) (status int, msg string) {
	switch {
	case errors.Is(err, errMissingFile), errors.Is(err, errFileTooLarge),
		errors.Is(err, errUnsupportedType), errors.Is(err, errMaliciousFile):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "failed to scan file"
	}
}

func contentTypeOf(file *multipart.FileHeader) string {
	if ct := file.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
