// Package errcode 定义简历解析通知中携带的数字错误码。
package errcode

// 0 成功；4xxx 解析已完成但有步骤降级；5xxx 解析失败，简历状态为 failed。
const (
	OK = 0

	// TextFallback 文件文本读取失败，技能来自默认列表。
	TextFallback = 4001
	// AssessmentUnavailable 解析成功，但个性化测评没有生成。
	AssessmentUnavailable = 4002

	SystemError = 5000
)
