package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
)

const (
	maxChats       = 15
	messagesWindow = 20
	// DefaultSelfName 自己发出的消息的默认显示名
	DefaultSelfName = "Pedro (Eu)"
	unknownSender   = "Prospect"
	untitledChat    = "Chat sem nome"
)

// ErrEvolutionNotConfigured 缺少网关地址或实例名
var ErrEvolutionNotConfigured = errors.New("evolution api is not configured")

// Chat 网关中的一个会话
type Chat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnreadCount int    `json:"unreadCount"`
}

// EvolutionClient WhatsApp 网关 (Evolution API) 客户端
type EvolutionClient struct {
	baseURL  string
	apiKey   string
	instance string
	selfName string
	client   *http.Client
}

// NewEvolutionClient 创建网关客户端
func NewEvolutionClient(c config.EvolutionConfig) (*EvolutionClient, error) {
	if c.BaseURL == "" || c.Instance == "" {
		return nil, ErrEvolutionNotConfigured
	}
	selfName := c.SelfName
	if selfName == "" {
		selfName = DefaultSelfName
	}
	return &EvolutionClient{
		baseURL:  strings.TrimRight(c.BaseURL, "/"),
		apiKey:   c.APIKey,
		instance: c.Instance,
		selfName: selfName,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SelfName 自己发出的消息的显示名
func (c *EvolutionClient) SelfName() string {
	return c.selfName
}

type chatRecord struct {
	ID          string `json:"id"`
	RemoteJID   string `json:"remoteJid"`
	Name        string `json:"name"`
	PushName    string `json:"pushName"`
	UnreadCount int    `json:"unreadCount"`
}

// Chats 列出最近的会话，最多 15 个
func (c *EvolutionClient) Chats(ctx context.Context) ([]Chat, error) {
	body, err := c.do(ctx, http.MethodGet, "/chat/findChats/"+c.instance, nil)
	if err != nil {
		return nil, err
	}

	var records []chatRecord
	if err := decodeList(body, &records, "instance.chats", "chats"); err != nil {
		return nil, fmt.Errorf("unmarshal chats failed: %w", err)
	}

	chats := make([]Chat, 0, min(len(records), maxChats))
	for _, r := range records {
		if len(chats) == maxChats {
			break
		}
		id := firstNonEmpty(r.ID, r.RemoteJID)
		chats = append(chats, Chat{
			ID:          id,
			Name:        firstNonEmpty(r.Name, r.PushName, id, untitledChat),
			UnreadCount: r.UnreadCount,
		})
	}
	return chats, nil
}

type messageRecord struct {
	Key struct {
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`
	PushName string `json:"pushName"`
	Message  *struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage *struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
	MessageTimestamp json.RawMessage `json:"messageTimestamp"`
}

func (m messageRecord) text() string {
	if m.Message != nil {
		if m.Message.Conversation != "" {
			return m.Message.Conversation
		}
		if m.Message.ExtendedTextMessage != nil && m.Message.ExtendedTextMessage.Text != "" {
			return m.Message.ExtendedTextMessage.Text
		}
	}
	return MediaPlaceholder
}

// timestamp 兼容数字和字符串两种秒级时间戳
func (m messageRecord) timestamp() time.Time {
	raw := strings.Trim(string(m.MessageTimestamp), `"`)
	if raw == "" || raw == "null" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Messages 取会话最近 20 条消息，按时间从旧到新返回
func (c *EvolutionClient) Messages(ctx context.Context, chatID string) (Conversation, error) {
	payload, err := json.Marshal(map[string]any{
		"where": map[string]string{"remoteJid": chatID},
		"take":  messagesWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/chat/findMessages/"+c.instance, payload)
	if err != nil {
		return nil, err
	}

	var records []messageRecord
	if err := decodeList(body, &records, "messages.records", "messages"); err != nil {
		return nil, fmt.Errorf("unmarshal messages failed: %w", err)
	}

	// 网关按新到旧返回
	conv := make(Conversation, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		sender := firstNonEmpty(r.PushName, unknownSender)
		if r.Key.FromMe {
			sender = c.selfName
		}
		conv = append(conv, Message{Time: r.timestamp(), Sender: sender, Text: r.text()})
	}
	return conv, nil
}

func (c *EvolutionClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.Log.WithField("status", res.StatusCode).WithField("path", path).Errorf("网关返回错误: %s", truncateBody(body))
		return nil, fmt.Errorf("evolution api error (status %d): check base url and instance", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		logger.Log.WithField("content_type", ct).Errorf("网关返回的不是 JSON: %s", truncateBody(body))
		return nil, fmt.Errorf("evolution api returned %q instead of JSON: check that the base url is correct", ct)
	}
	return body, nil
}

// decodeList 解析数组，或按给定路径在对象中寻找数组，找不到时得到空列表
func decodeList(body []byte, out any, paths ...string) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return err
	}
	for _, p := range paths {
		raw, ok := lookup(root, strings.Split(p, "."))
		if ok {
			return json.Unmarshal(raw, out)
		}
	}
	return json.Unmarshal([]byte("[]"), out)
}

func lookup(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	raw, ok := obj[keys[0]]
	if !ok {
		return nil, false
	}
	if len(keys) == 1 {
		trimmed := bytes.TrimSpace(raw)
		return raw, len(trimmed) > 0 && trimmed[0] == '['
	}
	var next map[string]json.RawMessage
	if err := json.Unmarshal(raw, &next); err != nil {
		return nil, false
	}
	return lookup(next, keys[1:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateBody(b []byte) string {
	const limit = 100
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}
