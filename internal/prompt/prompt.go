// Package prompt holds the fixed system instruction sent with every chat request.
package prompt

import "chatstream/internal/core"

// SystemInstruction is prepended to every conversation. It is not configurable.
const SystemInstruction = `Ты - AI-ассистент для разработки на платформе 1С:Предприятие.

Твои возможности:
- Анализ и рефакторинг кода на языке BSL (1С)
- Объяснение логики кода
- Поиск ошибок и предложение исправлений
- Написание нового кода по описанию
- Форматирование и улучшение читаемости кода

Используй русский язык в ответах. Форматируй код в блоках ` + "```bsl...```."

// WithSystem returns a new slice holding the system instruction at index 0
// followed by msgs in their original order. msgs is not modified.
func WithSystem(msgs []core.Message) []core.Message {
	result := make([]core.Message, 0, len(msgs)+1)
	result = append(result, core.Message{Role: core.RoleSystem, Content: SystemInstruction})
	result = append(result, msgs...)
	return result
}
