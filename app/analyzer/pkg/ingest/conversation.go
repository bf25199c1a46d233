package ingest

import (
	"fmt"
	"strings"
	"time"
)

// MediaPlaceholder 非文本消息的占位内容
const MediaPlaceholder = "[Mídia/Outro]"

// Message 一条聊天消息
type Message struct {
	Time   time.Time
	Sender string
	Text   string
}

// Conversation 按时间从旧到新排列的消息
type Conversation []Message

// String 渲染为每行一条的 [发送者]: 内容 格式
func (c Conversation) String() string {
	var sb strings.Builder
	for i, m := range c {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%s]: %s", m.Sender, m.Text)
	}
	return sb.String()
}

// Tail 返回最后 n 条消息，n <= 0 时返回全部
func (c Conversation) Tail(n int) Conversation {
	if n <= 0 || n >= len(c) {
		return c
	}
	return c[len(c)-n:]
}

// LastFrom 返回最后一条不是 self 发出的消息及其之前的历史
func (c Conversation) LastFrom(self string) (history Conversation, latest Message, ok bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Sender != self {
			return c[:i], c[i], true
		}
	}
	return c, Message{}, false
}
