package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/ingest"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file...]",
	Short: "分析对话并保存报告",
	Long: `分析一段或多段对话。没有参数时从标准输入读取。

Examples:
  # 分析粘贴的对话
  analyzer analyze < conversa.txt

  # 分析 WhatsApp 导出的多个聊天
  analyzer analyze --whatsapp --owner Pedro chat1.txt chat2.txt

  # 分析网页上的对话记录
  analyzer analyze --url https://example.com/transcript`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.Bool("whatsapp", false, "treat inputs as WhatsApp chat exports")
	f.String("owner", "", "your name in the WhatsApp export")
	f.String("url", "", "fetch the conversation from a web page")
	f.Int("workers", 0, "parallel analyses (default from config)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	asExport, _ := f.GetBool("whatsapp")
	owner, _ := f.GetString("owner")
	pageURL, _ := f.GetString("url")
	workers, _ := f.GetInt("workers")
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	rt, err := openRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	opts := ingest.ExportOptions{Owner: owner, OwnerLabel: cfg.Evolution.SelfName, Location: rt.loc}

	var conversations []string
	switch {
	case pageURL != "":
		page, err := ingest.FetchPage(pageURL, 30*time.Second)
		if err != nil {
			return err
		}
		conversations = append(conversations, page.Text)
	case len(args) == 0:
		text, err := readConversation(cmd.InOrStdin(), asExport, opts)
		if err != nil {
			return err
		}
		conversations = append(conversations, text)
	default:
		for _, path := range args {
			fh, err := os.Open(path)
			if err != nil {
				return err
			}
			text, err := readConversation(fh, asExport, opts)
			fh.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			conversations = append(conversations, text)
		}
	}

	if len(conversations) == 1 {
		rep, err := rt.engine.Analyze(ctx, conversations[0])
		if rep == nil {
			return err
		}
		if err != nil {
			// 存储失败时仍输出报告，可以之后通过 import 恢复
			logger.Log.Warnf("报告未能保存: %v", err)
		}
		return printJSON(cmd.OutOrStdout(), rep)
	}

	results := rt.engine.AnalyzeBatch(ctx, conversations, workers)
	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		name := fmt.Sprintf("#%d", r.Index+1)
		if len(args) > r.Index {
			name = filepath.Base(args[r.Index])
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%-24s ERROR  %v\n", name, r.Err)
			continue
		}
		fmt.Fprintf(out, "%-24s %3d    %s\n", name, r.Report.OverallScore, r.Report.Classification)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(results))
	}
	return nil
}

func readConversation(r io.Reader, asExport bool, opts ingest.ExportOptions) (string, error) {
	if asExport {
		conv, err := ingest.ReadWhatsAppExport(r, opts)
		if err != nil {
			return "", err
		}
		return conv.String(), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
