// graph.go implements "ember graph", browsing a concept graph and the
// user's progress through it.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfocus/ember/internal/schema"
)

var graphTitleFilter string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Browse concept graphs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var graphQueryCmd = &cobra.Command{
	Use:   "query <graph-id>",
	Short: "List nodes in a graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphQuery,
}

var graphProgressCmd = &cobra.Command{
	Use:   "progress <graph-id> <node-id>",
	Short: "Show your progress on a node",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraphProgress,
}

func init() {
	graphQueryCmd.Flags().StringVar(&graphTitleFilter, "title", "", "Only nodes whose title contains this text")
	graphCmd.AddCommand(graphQueryCmd)
	graphCmd.AddCommand(graphProgressCmd)
}

func runGraphQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.graph.Query(cmd.Context(), schema.GraphQuery{
		GraphID:       args[0],
		TitleContains: graphTitleFilter,
	})
	if err != nil {
		return err
	}
	if len(result.Nodes) == 0 {
		fmt.Println("No nodes found.")
		return nil
	}
	for _, node := range result.Nodes {
		fmt.Printf("%s  %-9s  %s\n", node.ID, node.Type, node.Title)
	}
	if result.HasMore {
		fmt.Printf("(%d total)\n", result.TotalCount)
	}
	return nil
}

func runGraphProgress(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	user := a.callerContext().UserID
	progress, err := a.graph.Progress(cmd.Context(), user, args[0], args[1])
	if err != nil {
		return err
	}
	if progress == nil {
		fmt.Println("No progress recorded yet.")
		return nil
	}
	fmt.Printf("Mastery: %s  (practiced %d times)\n", progress.MasteryLevel, progress.PracticeCount)
	return nil
}
