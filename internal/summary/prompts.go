package summary

import "fmt"

// SystemPrompt instructs the model to answer in the canonical
// keyword + summary layout.
const SystemPrompt = `你是一个对话记忆整理助手。请阅读用户与助手的对话，提炼可长期复用的信息。
严格按以下格式输出，不要输出其他内容：
关键词：关键词1，关键词2，关键词3
总结：一段不超过 280 字的中文总结，包含问题背景、结论和关键做法。`

// UserPrompt wraps a transcript window for the summarization request.
func UserPrompt(window string) string {
	return fmt.Sprintf("以下是需要总结的对话内容：\n\n%s\n\n请输出关键词（恰好 3 个）和总结。", window)
}
