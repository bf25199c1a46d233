package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/aggregate"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "管理分析历史",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出历史报告，最新的在前",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "查看单个报告",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "删除报告",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "清空全部历史",
	RunE:  runHistoryClear,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "汇总指标、趋势和改进幅度",
	RunE:  runStats,
}

func init() {
	f := historyListCmd.Flags()
	f.Int("min", 0, "minimum overall score")
	f.Int("max", 0, "maximum overall score")
	f.String("class", "", "classification filter")
	f.String("period", "all", "all, week, month or year")
	f.Int("limit", 0, "show at most n reports")

	historyClearCmd.Flags().Bool("yes", false, "confirm clearing the history")
	statsCmd.Flags().Int("days", 0, "trend window in days (default from config)")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd, statsCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	minScore, _ := f.GetInt("min")
	maxScore, _ := f.GetInt("max")
	class, _ := f.GetString("class")
	periodFlag, _ := f.GetString("period")
	limit, _ := f.GetInt("limit")

	period, err := aggregate.ParsePeriod(periodFlag)
	if err != nil {
		return err
	}
	if class != "" && !model.Classification(class).Valid() {
		return fmt.Errorf("unknown classification: %s", class)
	}

	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	h, err := rt.engine.History(cmd.Context())
	if err != nil {
		return err
	}
	filter := aggregate.Filter{
		MinScore:       minScore,
		MaxScore:       maxScore,
		Classification: model.Classification(class),
		Period:         period,
	}
	h = filter.Apply(h, time.Now())
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSCORE\tCLASSIFICATION\tNEXT ACTION")
	for _, r := range h {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Date.In(rt.loc).Format("02/01/2006 15:04"), r.OverallScore, r.Classification, r.SuggestedNextAction)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	rep, ok, err := rt.engine.Report(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("report %s not found", args[0])
	}
	return printJSON(cmd.OutOrStdout(), rep)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	for _, id := range args {
		if err := rt.engine.Delete(cmd.Context(), id); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d report(s)\n", len(args))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("refusing to clear the history without --yes")
	}
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	return rt.engine.Clear(cmd.Context())
}

// statsView stats 命令的输出
type statsView struct {
	model.BusinessStats
	ImprovementDelta   int                          `json:"improvementDelta"`
	ImprovementPercent float64                      `json:"improvementPercent"`
	Distribution       aggregate.Distribution       `json:"distribution"`
	ScoreBands         []aggregate.ScoreBand        `json:"scoreBands"`
	Criteria           []aggregate.CriterionAverage `json:"criteria"`
	Insights           aggregate.Insights           `json:"insights"`
	Trend              []aggregate.TrendPoint       `json:"trend"`
}

func runStats(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = cfg.Report.TrendDays
	}

	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.close()

	h, err := rt.engine.History(cmd.Context())
	if err != nil {
		return err
	}
	trend, err := aggregate.Trend(h, days, aggregate.BucketDay, time.Now().In(rt.loc))
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), statsView{
		BusinessStats:      aggregate.Summarize(h),
		ImprovementDelta:   aggregate.ImprovementDelta(h),
		ImprovementPercent: aggregate.ImprovementPercent(h),
		Distribution:       aggregate.Distribute(h),
		ScoreBands:         aggregate.ScoreBands(h),
		Criteria:           aggregate.CriterionAverages(h),
		Insights:           aggregate.CollectInsights(h),
		Trend:              trend,
	})
}
