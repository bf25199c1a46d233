package backup

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tealeg/xlsx/v2"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

const (
	csvHeader        = "Date,Score,Classification,SuggestedNextAction,OriginalConversation"
	conversationCap  = 100
	spreadsheetDate  = "02/01/2006"
	spreadsheetSheet = "Relatorio"
)

// WriteCSV 导出 CSV，每个值都加双引号，对话截取前 100 个字符
func (c *Codec) WriteCSV(w io.Writer, h model.History) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range h {
		fields := c.row(r)
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = quote(f)
		}
		if _, err := bw.WriteString("\n" + strings.Join(quoted, ",")); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	return bw.Flush()
}

func (c *Codec) row(r model.AnalysisReport) []string {
	return []string{
		r.Date.In(c.loc).Format(spreadsheetDate),
		strconv.Itoa(r.OverallScore),
		string(r.Classification),
		r.SuggestedNextAction,
		truncate(r.OriginalConversation, conversationCap),
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// WriteXLSX 导出 Excel，在 CSV 的列之后追加五个维度的得分
func (c *Codec) WriteXLSX(w io.Writer, h model.History) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(spreadsheetSheet)
	if err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, name := range strings.Split(csvHeader, ",") {
		header.AddCell().SetString(name)
	}
	for _, crit := range model.Criteria {
		header.AddCell().SetString(crit.Label())
	}

	for _, r := range h {
		row := sheet.AddRow()
		fields := c.row(r)
		for i, v := range fields {
			cell := row.AddCell()
			if i == 1 {
				cell.SetInt(r.OverallScore)
				continue
			}
			cell.SetString(v)
		}
		for _, crit := range model.Criteria {
			row.AddCell().SetInt(r.Scorecard.Item(crit).Score)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}
