package cli

import (
	"context"
	"errors"
	"os"

	"storyweave/internal/engine"
	"storyweave/internal/watcher"

	"github.com/spf13/cobra"
)

func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch GRAPH_ID FILE",
		Short: "Resync a stored graph every time FILE is saved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			graphID, path := args[0], args[1]

			svc, _, closeDB, err := c.openService()
			if err != nil {
				return err
			}
			defer closeDB()

			// Fail fast on an unknown graph
			if _, err := svc.GetGraph(cmd.Context(), graphID); err != nil {
				return err
			}

			sync := func(ctx context.Context) error {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				text := string(data)
				res, err := svc.SyncStructure(ctx, graphID, engine.SyncRequest{Text: &text})
				if err != nil {
					return err
				}
				c.Logger.Info("synced", "graph", graphID, "path", res.Path, "nodes", len(res.Graph.Nodes))
				return nil
			}

			w := watcher.New(path, c.Logger, sync).WithDebounce(c.Config.Watch.Debounce.Duration())
			if err := w.Watch(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
