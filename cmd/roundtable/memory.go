package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roundtable-ai/roundtable/internal/memory"
)

var (
	memoryProject    string
	memoryListType   string
	memorySetType    string
	memoryImportance int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit project memory",
	Long: `Inspect and edit the medium-term project memory shared by all of a
project's personas. Memory entries are typed (fact, decision, blocker,
preference, insight) and scored by importance; low-importance entries are
evicted first when the project hits its memory cap.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's memory entries",
	RunE:  runMemoryList,
}

var memorySetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Create or update a memory entry",
	Long: `Create or update a memory entry by key.

When --importance is omitted the type's default is used (blockers score
highest, preferences lowest). Setting an existing key updates it in place
without counting against the memory cap.`,
	Args: cobra.ExactArgs(2),
	RunE: runMemorySet,
}

var memoryRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a memory entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryRemove,
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory usage for a project",
	RunE:  runMemoryStats,
}

func init() {
	memoryCmd.PersistentFlags().StringVar(&memoryProject, "project", "", "Project id (required)")
	memoryListCmd.Flags().StringVar(&memoryListType, "type", "", "Filter by type (fact, decision, blocker, preference, insight)")
	memorySetCmd.Flags().StringVar(&memorySetType, "type", "fact", "Entry type (fact, decision, blocker, preference, insight)")
	memorySetCmd.Flags().IntVar(&memoryImportance, "importance", 0, "Importance 1-10 (type default when omitted)")
	memoryCmd.AddCommand(memoryListCmd, memorySetCmd, memoryRemoveCmd, memoryStatsCmd)
	rootCmd.AddCommand(memoryCmd)
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", memoryProject)
	if err != nil {
		return err
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	var records []*memory.Record
	if memoryListType != "" {
		t := memory.Type(memoryListType)
		if !t.IsValid() {
			return fmt.Errorf("unknown memory type %q", memoryListType)
		}
		records, err = app.mediumTerm.GetMemoriesByType(ctx, projectID, t)
	} else {
		records, err = app.mediumTerm.GetMemories(ctx, projectID)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No memory entries.")
		return nil
	}

	for _, r := range records {
		fmt.Printf("[%2d] %-10s %s = %s\n", r.Importance, r.Type, r.Key, r.Value)
	}
	return nil
}

func runMemorySet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", memoryProject)
	if err != nil {
		return err
	}

	t := memory.Type(memorySetType)
	if !t.IsValid() {
		return fmt.Errorf("unknown memory type %q", memorySetType)
	}

	importance := memoryImportance
	if importance == 0 {
		importance = memory.DefaultImportance(t)
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.mediumTerm.SetMemory(ctx, projectID, t, args[0], args[1], importance); err != nil {
		return err
	}

	fmt.Printf("Set %s %q (importance %d)\n", t, args[0], memory.ClampImportance(importance))
	return nil
}

func runMemoryRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", memoryProject)
	if err != nil {
		return err
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.mediumTerm.RemoveMemory(ctx, projectID, args[0]); err != nil {
		return err
	}

	fmt.Printf("Removed %q\n", args[0])
	return nil
}

func runMemoryStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", memoryProject)
	if err != nil {
		return err
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.mediumTerm.GetStats(ctx, projectID)
	if err != nil {
		return err
	}

	fmt.Printf("Entries: %d/%d\n", stats.TotalMemories, app.cfg.Memory.ProjectMemoryCap)
	fmt.Printf("Average importance: %.1f\n", stats.AvgImportance)
	for _, t := range []memory.Type{
		memory.TypeFact, memory.TypeDecision, memory.TypeBlocker,
		memory.TypePreference, memory.TypeInsight,
	} {
		if n := stats.CountsByType[t]; n > 0 {
			fmt.Printf("  %-10s %d\n", t, n)
		}
	}
	return nil
}
