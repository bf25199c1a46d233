package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/backup"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出历史为 JSON 备份",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "从 JSON 备份导入，只追加本地没有的报告",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "导出 CSV 报表",
	RunE:  runSheet("csv"),
}

var xlsxCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "导出 Excel 报表",
	RunE:  runSheet("xlsx"),
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "在 S3 上保存和恢复备份",
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "上传当前历史的备份",
	RunE:  runBackupPush,
}

var backupPullCmd = &cobra.Command{
	Use:   "pull <key>",
	Short: "下载备份并导入",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupPull,
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, csvCmd, xlsxCmd} {
		c.Flags().StringP("output", "o", "", "output file (stdout when empty)")
	}
	backupCmd.AddCommand(backupPushCmd, backupPullCmd)
	rootCmd.AddCommand(exportCmd, importCmd, csvCmd, xlsxCmd, backupCmd)
}

// openOutput 打开输出文件，未指定时使用标准输出
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return fh, fh.Close, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	doc, err := rt.engine.Export(cmd.Context())
	if err != nil {
		return err
	}
	if len(doc.History) == 0 {
		return fmt.Errorf("history is empty")
	}
	data, err := backup.Marshal(doc)
	if err != nil {
		return err
	}

	w, done, err := openOutput(cmd)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		done()
		return err
	}
	return done()
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return importData(cmd, data)
}

func importData(cmd *cobra.Command, data []byte) error {
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	added, err := rt.engine.Import(cmd.Context(), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d new report(s)\n", len(added))
	return nil
}

func runSheet(format string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.close()

		h, err := rt.engine.History(cmd.Context())
		if err != nil {
			return err
		}

		w, done, err := openOutput(cmd)
		if err != nil {
			return err
		}
		codec := rt.engine.Codec()
		if format == "xlsx" {
			err = codec.WriteXLSX(w, h)
		} else {
			err = codec.WriteCSV(w, h)
		}
		if err != nil {
			done()
			return err
		}
		return done()
	}
}

func runBackupPush(cmd *cobra.Command, args []string) error {
	archiver, err := backup.OpenArchiver(cmd.Context(), cfg.Backup.S3)
	if err != nil {
		return err
	}
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	doc, err := rt.engine.Export(cmd.Context())
	if err != nil {
		return err
	}
	key, err := archiver.Push(cmd.Context(), doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func runBackupPull(cmd *cobra.Command, args []string) error {
	archiver, err := backup.OpenArchiver(cmd.Context(), cfg.Backup.S3)
	if err != nil {
		return err
	}
	data, err := archiver.Pull(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return importData(cmd, data)
}
