package api

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/storage"
)

// isValidInterviewVideoKey 校验客户端回传的视频对象键属于该面试。
func isValidInterviewVideoKey(interviewID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	if !strings.HasPrefix(key, storage.InterviewVideoPrefix(interviewID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	if len(key) > 200 {
		return false
	}
	return slices.Contains(videoExtensions, strings.ToLower(filepath.Ext(key)))
}

// isExternalURL 判断值是否为 http(s) 外部链接而非对象键。
func isExternalURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}
