package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/ingest"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "针对对方最新的消息给出回复建议",
	Long: `实时教练：根据对话历史和对方最后一条消息给出建议回复。

Examples:
  analyzer live --message "Quanto custa?" --history conversa.txt
  analyzer live --whatsapp chat.txt --owner Pedro`,
	RunE: runLive,
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio>",
	Short: "把语音消息转成文字",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscribe,
}

func init() {
	f := liveCmd.Flags()
	f.String("message", "", "latest message from the prospect")
	f.String("history", "", "file with the conversation so far")
	f.String("whatsapp", "", "WhatsApp export; the last message not sent by --owner is answered")
	f.String("owner", "", "your name in the WhatsApp export")

	transcribeCmd.Flags().String("mime", "", "audio mime type (guessed from the extension when empty)")

	rootCmd.AddCommand(liveCmd, transcribeCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	message, _ := f.GetString("message")
	historyPath, _ := f.GetString("history")
	exportPath, _ := f.GetString("whatsapp")
	owner, _ := f.GetString("owner")

	var history string
	switch {
	case exportPath != "":
		fh, err := os.Open(exportPath)
		if err != nil {
			return err
		}
		defer fh.Close()
		conv, err := ingest.ReadWhatsAppExport(fh, ingest.ExportOptions{Owner: owner, OwnerLabel: cfg.Evolution.SelfName})
		if err != nil {
			return err
		}
		prior, latest, ok := conv.LastFrom(cfg.Evolution.SelfName)
		if !ok {
			return fmt.Errorf("no message from the prospect in %s", filepath.Base(exportPath))
		}
		history, message = prior.String(), latest.Text
	case historyPath != "":
		data, err := os.ReadFile(historyPath)
		if err != nil {
			return err
		}
		history = string(data)
	}

	rt, err := openRuntime(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer rt.close()

	s, err := rt.engine.LiveSuggestion(cmd.Context(), history, message)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), s)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	audio, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	mimeType, _ := cmd.Flags().GetString("mime")
	if mimeType == "" {
		mimeType = guessAudioType(args[0])
	}

	rt, err := openRuntime(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer rt.close()

	text, err := rt.engine.Transcribe(cmd.Context(), audio, mimeType)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func guessAudioType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".opus", ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return ""
}
