package cli

import (
	"fmt"
	"os"

	"storyweave/internal/codec"
	"storyweave/internal/domain"

	"github.com/spf13/cobra"
)

func readGraphFile(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := codec.ParseMermaid(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func (c *CLI) fmtCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Print a mermaid file in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraphFile(args[0])
			if err != nil {
				return err
			}
			out := codec.Serialize(g)
			if write {
				return os.WriteFile(args[0], []byte(out), 0644)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	return cmd
}

func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Parse a mermaid file and report what it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraphFile(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (direction %s, %d nodes, %d edges, %d clusters, %d style classes)\n",
				args[0], g.Direction, len(g.Nodes), len(g.Edges), len(g.Clusters), len(g.StyleClasses))
			return err
		},
	}
}
