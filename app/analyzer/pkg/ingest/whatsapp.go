package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// 同时匹配安卓 "09/05/2025 14:03 - " 和 iOS "[09/05/2025, 14:03:12] " 两种行首
var exportLine = regexp.MustCompile(`^\[?(\d{1,2}/\d{1,2}/\d{2,4}),? (\d{1,2}:\d{2}(?::\d{2})?)\]?(?: -)? (.*)$`)

var exportLayouts = []string{
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/06 15:04",
	"2/1/06 15:04:05",
}

// 导出文件里表示媒体被省略的写法
var omittedMedia = map[string]bool{
	"<Mídia oculta>":            true,
	"<Media omitted>":           true,
	"<arquivo de mídia oculto>": true,
	"imagem ocultada":           true,
	"áudio ocultado":            true,
	"image omitted":             true,
	"audio omitted":             true,
}

// ExportOptions 导出文件解析选项
type ExportOptions struct {
	Owner      string         // 导出者在文件中的名字
	OwnerLabel string         // 替换 Owner 的显示名，空时保留原名
	Location   *time.Location // 时间所在时区，空时为 UTC
}

// ReadWhatsAppExport 解析 WhatsApp 导出的聊天记录
//
// 支持带 BOM 的 UTF-8 和 UTF-16。系统提示行会被跳过，不以时间开头的行并入上一条消息。
func ReadWhatsAppExport(r io.Reader, opts ExportOptions) (Conversation, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var conv Conversation
	current := -1
	for scanner.Scan() {
		line := strings.TrimRight(cleanMarks(scanner.Text()), "\r")

		m := exportLine.FindStringSubmatch(line)
		if m == nil {
			if current >= 0 {
				conv[current].Text += "\n" + line
			}
			continue
		}

		sender, text, ok := strings.Cut(m[3], ": ")
		if !ok {
			// 系统提示，例如加密说明
			current = -1
			continue
		}
		sender = strings.TrimSpace(sender)
		if opts.Owner != "" && opts.OwnerLabel != "" && sender == opts.Owner {
			sender = opts.OwnerLabel
		}
		if omittedMedia[strings.TrimSpace(text)] {
			text = MediaPlaceholder
		}

		conv = append(conv, Message{
			Time:   parseExportTime(m[1], m[2], loc),
			Sender: sender,
			Text:   text,
		})
		current = len(conv) - 1
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read whatsapp export: %w", err)
	}
	return conv, nil
}

func parseExportTime(date, clock string, loc *time.Location) time.Time {
	value := date + " " + clock
	for _, layout := range exportLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// cleanMarks 去掉 iOS 导出中夹带的方向控制字符
func cleanMarks(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200e', '\u200f', '\u202a', '\u202c', '\ufeff':
			return -1
		}
		return r
	}, s)
}
