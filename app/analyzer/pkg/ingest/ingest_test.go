package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
)

const androidExport = `09/05/2025 14:03 - As mensagens e ligações são protegidas com a criptografia de ponta a ponta.
09/05/2025 14:03 - Pedro: Olá Ana, vi que vocês abriram uma nova loja!
09/05/2025 14:05 - Ana Souza: Oi! Sim, semana passada.
Estamos bem ocupados.
09/05/2025 14:06 - Ana Souza: <Mídia oculta>
10/05/2025 09:00 - Pedro: Posso te mandar uma proposta: 10 minutos?`

func TestReadWhatsAppExport_Android(t *testing.T) {
	conv, err := ReadWhatsAppExport(strings.NewReader(androidExport), ExportOptions{
		Owner:      "Pedro",
		OwnerLabel: "Pedro (Eu)",
	})
	require.NoError(t, err)
	require.Len(t, conv, 4)

	assert.Equal(t, "Pedro (Eu)", conv[0].Sender)
	assert.Equal(t, time.Date(2025, 5, 9, 14, 3, 0, 0, time.UTC), conv[0].Time)
	assert.Equal(t, "Oi! Sim, semana passada.\nEstamos bem ocupados.", conv[1].Text)
	assert.Equal(t, MediaPlaceholder, conv[2].Text)
	assert.Equal(t, "Posso te mandar uma proposta: 10 minutos?", conv[3].Text)

	assert.Equal(t, "[Pedro (Eu)]: Olá Ana, vi que vocês abriram uma nova loja!\n"+
		"[Ana Souza]: Oi! Sim, semana passada.\nEstamos bem ocupados.\n"+
		"[Ana Souza]: [Mídia/Outro]\n"+
		"[Pedro (Eu)]: Posso te mandar uma proposta: 10 minutos?", conv.String())
}

func TestReadWhatsAppExport_IOSWithUTF16(t *testing.T) {
	text := "[09/05/25, 14:03:12] Ana: \u200eimage omitted\r\n[09/05/25, 14:04:00] Pedro: Bom dia\r\n"
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.Bytes([]byte(text))
	require.NoError(t, err)

	conv, err := ReadWhatsAppExport(bytes.NewReader(encoded), ExportOptions{})
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, Message{Time: time.Date(2025, 5, 9, 14, 3, 12, 0, time.UTC), Sender: "Ana", Text: MediaPlaceholder}, conv[0])
	assert.Equal(t, "Pedro", conv[1].Sender)
	assert.Equal(t, "Bom dia", conv[1].Text)
}

func TestReadWhatsAppExport_UTF8BOMAndLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	conv, err := ReadWhatsAppExport(strings.NewReader("\ufeff01/02/2025 08:00 - Ana: oi"), ExportOptions{Location: loc})
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.Equal(t, "Ana", conv[0].Sender)
	assert.True(t, conv[0].Time.Equal(time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC)))
}

func TestConversation_TailAndLastFrom(t *testing.T) {
	conv := Conversation{
		{Sender: "Ana", Text: "1"},
		{Sender: "Me", Text: "2"},
		{Sender: "Ana", Text: "3"},
		{Sender: "Me", Text: "4"},
	}
	assert.Equal(t, conv[2:], conv.Tail(2))
	assert.Equal(t, conv, conv.Tail(0))

	history, latest, ok := conv.LastFrom("Me")
	require.True(t, ok)
	assert.Equal(t, "3", latest.Text)
	assert.Equal(t, conv[:2], history)

	_, _, ok = Conversation{{Sender: "Me"}}.LastFrom("Me")
	assert.False(t, ok)
}

func newEvolution(t *testing.T, handler http.HandlerFunc) *EvolutionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewEvolutionClient(config.EvolutionConfig{BaseURL: srv.URL + "/", APIKey: "secret", Instance: "vendas"})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func TestEvolution_Chats(t *testing.T) {
	var chats []map[string]any
	for i := 0; i < 20; i++ {
		chats = append(chats, map[string]any{"remoteJid": "jid" + string(rune('a'+i))})
	}
	chats[0]["name"] = "Ana"
	chats[0]["unreadCount"] = 3
	payload, err := json.Marshal(map[string]any{"instance": map[string]any{"chats": chats}})
	require.NoError(t, err)

	c := newEvolution(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chat/findChats/vendas", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		writeJSON(w, string(payload))
	})

	got, err := c.Chats(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 15)
	assert.Equal(t, Chat{ID: "jida", Name: "Ana", UnreadCount: 3}, got[0])
	assert.Equal(t, Chat{ID: "jidb", Name: "jidb"}, got[1])
}

func TestEvolution_ChatsShapes(t *testing.T) {
	for name, body := range map[string]string{
		"array":       `[{"id":"1","name":"A"}]`,
		"chats field": `{"chats":[{"id":"1","name":"A"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newEvolution(t, func(w http.ResponseWriter, r *http.Request) { writeJSON(w, body) })
			got, err := c.Chats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []Chat{{ID: "1", Name: "A"}}, got)
		})
	}

	c := newEvolution(t, func(w http.ResponseWriter, r *http.Request) { writeJSON(w, `{"status":"ok"}`) })
	got, err := c.Chats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvolution_Messages(t *testing.T) {
	c := newEvolution(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/findMessages/vendas", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Where struct {
				RemoteJID string `json:"remoteJid"`
			} `json:"where"`
			Take int `json:"take"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "5511@s.whatsapp.net", req.Where.RemoteJID)
		assert.Equal(t, 20, req.Take)

		writeJSON(w, `{"messages":{"records":[
			{"key":{"fromMe":true},"message":{"extendedTextMessage":{"text":"Podemos falar amanhã?"}},"messageTimestamp":1746800000},
			{"key":{"fromMe":false},"message":{"imageMessage":{}},"messageTimestamp":"1746790000"},
			{"key":{"fromMe":false},"pushName":"Ana","message":{"conversation":"Oi"}},
			{"key":{"fromMe":false},"message":{"conversation":"Quem é?"}}
		]}}`)
	})

	conv, err := c.Messages(context.Background(), "5511@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "[Prospect]: Quem é?\n[Ana]: Oi\n[Prospect]: [Mídia/Outro]\n[Pedro (Eu)]: Podemos falar amanhã?", conv.String())
	assert.Equal(t, time.Unix(1746790000, 0).UTC(), conv[2].Time)
	assert.Equal(t, time.Unix(1746800000, 0).UTC(), conv[3].Time)
}

func TestEvolution_Errors(t *testing.T) {
	_, err := NewEvolutionClient(config.EvolutionConfig{BaseURL: "http://x"})
	assert.ErrorIs(t, err, ErrEvolutionNotConfigured)

	c := newEvolution(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "instance not found", http.StatusNotFound)
	})
	_, err = c.Chats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	c = newEvolution(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html></html>")
	})
	_, err = c.Messages(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instead of JSON")
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><head><title>Conversa com Ana</title></head><body>
<article><h1>Conversa com Ana</h1>
<p>[Pedro]: Olá Ana, tudo bem? Vi que a sua loja abriu uma nova unidade no centro da cidade e queria apresentar uma ideia.</p>
<p>[Ana]: Oi Pedro! Tudo ótimo. Pode mandar a proposta por aqui mesmo, estou com a agenda cheia esta semana.</p>
<p>[Pedro]: Perfeito, envio ainda hoje um resumo com os valores e dois horários para conversarmos rapidamente.</p>
</article></body></html>`)
	}))
	defer srv.Close()

	page, err := FetchPage(srv.URL, 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, page.Text, "Pode mandar a proposta")
}
