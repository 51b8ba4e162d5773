package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// 对象键布局：
//   resumes/<userID>/<uuid><ext>       候选人上传的简历原件
//   interviews/<interviewID>/<uuid><ext> 面试录像

// ResumeKey 为用户新上传的简历生成对象键。
func ResumeKey(userID uint, ext string) string {
	return fmt.Sprintf("resumes/%d/%s%s", userID, uuid.NewString(), normalizeExt(ext))
}

// InterviewVideoPrefix 返回某场面试的视频对象前缀，以 "/" 结尾。
func InterviewVideoPrefix(interviewID uint) string {
	return fmt.Sprintf("interviews/%d/", interviewID)
}

// InterviewVideoKey 为面试录像生成对象键。
func InterviewVideoKey(interviewID uint, ext string) string {
	return InterviewVideoPrefix(interviewID) + uuid.NewString() + normalizeExt(ext)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
