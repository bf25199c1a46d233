package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

func sample(id string, score int, day int) model.AnalysisReport {
	return model.AnalysisReport{
		AnalysisResult: model.AnalysisResult{
			OverallScore: score,
			Scorecard: model.Scorecard{
				Personalization:   model.ScoreItem{Score: 10, Feedback: "ok"},
				ValueProposition:  model.ScoreItem{Score: 11, Feedback: "ok"},
				TimingFollowUp:    model.ScoreItem{Score: 12, Feedback: "ok"},
				CTA:               model.ScoreItem{Score: 13, Feedback: "ok"},
				ObjectionHandling: model.ScoreItem{Score: 14, Feedback: "ok"},
			},
			Classification:      model.ClassificationNurture,
			WhatWentWell:        []string{"abertura"},
			WhatToImprove:       []string{"cta"},
			SuggestedNextAction: "Ligar amanhã",
			ImprovedScript:      "Olá!",
		},
		ID:                   id,
		Date:                 time.Date(2025, 5, day, 14, 0, 0, 0, time.UTC),
		OriginalConversation: "[Prospect]: oi",
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	h := model.History{sample("b", 70, 2), sample("a", 40, 1)}
	codec := NewCodec("", nil)

	doc := codec.Export(h, time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, DefaultSource, doc.Source)
	assert.Equal(t, "1.1", doc.Version)

	data, err := Marshal(doc)
	require.NoError(t, err)

	merged, added, err := Import(data, model.History{})
	require.NoError(t, err)
	assert.Equal(t, h, merged)
	assert.Equal(t, h, added)
}

func TestImport_AllKnownIsNoop(t *testing.T) {
	h := model.History{sample("b", 70, 2), sample("a", 40, 1)}
	data, err := Marshal(NewCodec("", nil).Export(h, time.Now()))
	require.NoError(t, err)

	merged, added, err := Import(data, h)
	require.NoError(t, err)
	assert.Equal(t, h, merged)
	assert.Empty(t, added)
}

func TestImport_PrependsOnlyUnseen(t *testing.T) {
	current := model.History{sample("a", 40, 1)}
	doc := `[{"id":"a","overallScore":99},{"id":"b","overallScore":60},{"overallScore":10},{"id":"b","overallScore":1}]`

	merged, added, err := Import([]byte(doc), current)
	require.NoError(t, err)

	require.Len(t, merged, 2)
	assert.Equal(t, "b", merged[0].ID)
	assert.Equal(t, 60, merged[0].OverallScore)
	assert.Equal(t, "a", merged[1].ID)
	assert.Equal(t, 40, merged[1].OverallScore)
	assert.Len(t, added, 1)
}

func TestCandidates_Shapes(t *testing.T) {
	got, err := Candidates([]byte(`{"source":"x","history":[{"id":"1"}]}`))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = Candidates([]byte(` [ ] `))
	require.NoError(t, err)
	assert.Empty(t, got)

	for name, in := range map[string]string{
		"empty":          "",
		"not json":       "not json",
		"scalar":         `42`,
		"no history":     `{"analyses":[]}`,
		"history object": `{"history":{"id":"1"}}`,
		"null history":   `{"history":null}`,
		"bad entry":      `[{"id":"1","overallScore":"high"}]`,
		"truncated":      `[{"id":"1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Candidates([]byte(in))
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.Contains(t, err.Error(), "invalid backup format")
		})
	}
}

func TestWriteCSV(t *testing.T) {
	r := sample("a", 72, 9)
	r.SuggestedNextAction = `Enviar "proposta" hoje`
	r.OriginalConversation = strings.Repeat("x", 98) + `"ab"` + strings.Repeat("y", 50)

	var buf bytes.Buffer
	require.NoError(t, NewCodec("", time.UTC).WriteCSV(&buf, model.History{r}))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Score,Classification,SuggestedNextAction,OriginalConversation", lines[0])

	want := `"09/05/2025","72","Nutrir Relacionamento","Enviar ""proposta"" hoje","` +
		strings.Repeat("x", 98) + `""a"`
	assert.Equal(t, want, lines[1])
}

func TestWriteCSV_UsesLocation(t *testing.T) {
	r := sample("a", 50, 9)
	r.Date = time.Date(2025, 5, 9, 1, 0, 0, 0, time.UTC)
	loc := time.FixedZone("BRT", -3*3600)

	var buf bytes.Buffer
	require.NoError(t, NewCodec("", loc).WriteCSV(&buf, model.History{r}))
	assert.Contains(t, buf.String(), `"08/05/2025"`)
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCodec("", nil).WriteCSV(&buf, nil))
	assert.Equal(t, csvHeader, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCodec("", time.UTC).WriteXLSX(&buf, model.History{sample("a", 72, 9)}))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 2)

	header := sheet.Rows[0].Cells
	require.Len(t, header, 10)
	assert.Equal(t, "Date", header[0].String())
	assert.Equal(t, "Personalização", header[5].String())

	row := sheet.Rows[1].Cells
	assert.Equal(t, "09/05/2025", row[0].String())
	score, err := row[1].Int()
	require.NoError(t, err)
	assert.Equal(t, 72, score)
	cta, err := row[8].Int()
	require.NoError(t, err)
	assert.Equal(t, 13, cta)
}

// fakeS3 内存对象存储
type fakeS3 struct {
	objects map[string][]byte
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestArchiver_PushPull(t *testing.T) {
	api := &fakeS3{objects: map[string][]byte{}}
	a := NewArchiver(api, "bucket", "backups")
	h := model.History{sample("a", 72, 9)}
	doc := NewCodec("", nil).Export(h, time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC))

	key, err := a.Push(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "backups/backup-castiel-bits-20250510T083000Z.json", key)

	data, err := a.Pull(context.Background(), key)
	require.NoError(t, err)
	merged, _, err := Import(data, nil)
	require.NoError(t, err)
	assert.Equal(t, h, merged)

	_, err = a.Pull(context.Background(), "missing")
	assert.Error(t, err)
}

func TestArchiver_PushError(t *testing.T) {
	a := NewArchiver(&fakeS3{err: errors.New("denied")}, "bucket", "")
	_, err := a.Push(context.Background(), Document{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}
