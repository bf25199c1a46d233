package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/ingest"
)

var evolutionCmd = &cobra.Command{
	Use:   "evolution",
	Short: "从 WhatsApp 网关读取会话",
}

var evolutionChatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "列出最近的会话",
	RunE:  runEvolutionChats,
}

var evolutionFetchCmd = &cobra.Command{
	Use:   "fetch <chat-id>",
	Short: "取会话最近的消息，加 --analyze 直接分析",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvolutionFetch,
}

func init() {
	evolutionFetchCmd.Flags().Bool("analyze", false, "analyze the fetched conversation")
	evolutionFetchCmd.Flags().Bool("live", false, "suggest a reply to the latest prospect message")
	evolutionCmd.AddCommand(evolutionChatsCmd, evolutionFetchCmd)
	rootCmd.AddCommand(evolutionCmd)
}

func runEvolutionChats(cmd *cobra.Command, args []string) error {
	client, err := ingest.NewEvolutionClient(cfg.Evolution)
	if err != nil {
		return err
	}
	chats, err := client.Chats(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUNREAD")
	for _, c := range chats {
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Name, c.UnreadCount)
	}
	return w.Flush()
}

func runEvolutionFetch(cmd *cobra.Command, args []string) error {
	doAnalyze, _ := cmd.Flags().GetBool("analyze")
	doLive, _ := cmd.Flags().GetBool("live")

	client, err := ingest.NewEvolutionClient(cfg.Evolution)
	if err != nil {
		return err
	}
	conv, err := client.Messages(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(conv) == 0 {
		return fmt.Errorf("chat %s has no messages", args[0])
	}

	if !doAnalyze && !doLive {
		fmt.Fprintln(cmd.OutOrStdout(), conv.String())
		return nil
	}

	rt, err := openRuntime(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer rt.close()

	if doLive {
		history, latest, ok := conv.LastFrom(client.SelfName())
		if !ok {
			return fmt.Errorf("no message from the prospect in chat %s", args[0])
		}
		s, err := rt.engine.LiveSuggestion(cmd.Context(), history.String(), latest.Text)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s)
	}

	rep, err := rt.engine.Analyze(cmd.Context(), conv.String())
	if rep == nil {
		return err
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
	}
	return printJSON(cmd.OutOrStdout(), rep)
}
