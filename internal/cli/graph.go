package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"storyweave/internal/codec"
	"storyweave/internal/domain"
	"storyweave/internal/logging"

	"github.com/spf13/cobra"
)

func (c *CLI) createCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "create FILE",
		Short: "Store a graph from a .mmd, .json or .yaml file",
		Long: `Create parses FILE and stores it as a new graph, printing its ID.

Mermaid files are stored with their text as the graph source. JSON and YAML
snapshots are imported with their entities and IDs intact.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if title == "" {
				title = titleFromPath(path)
			}

			svc, _, closeDB, err := c.openService()
			if err != nil {
				return err
			}
			defer closeDB()

			p := logging.NewProgress(logging.FromContext(ctx))
			var g *domain.Graph
			if cd := codec.ForPath(path); cd.Format() == codec.FormatMermaid {
				g, err = svc.CreateGraph(ctx, title, string(data))
			} else {
				g, err = cd.Parse(bytes.NewReader(data))
				if err == nil {
					if cmd.Flags().Changed("title") || g.Title == "" || g.Title == codec.UntitledGraph {
						g.Title = title
					}
					g, err = svc.ImportGraph(ctx, g)
				}
			}
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			p.Done("graph stored", "nodes", len(g.Nodes), "edges", len(g.Edges))

			fmt.Fprintln(cmd.OutOrStdout(), g.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "graph title (default: file name)")
	return cmd
}

func (c *CLI) exportCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export GRAPH_ID",
		Short: "Write a stored graph as mermaid, json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeDB, err := c.openService()
			if err != nil {
				return err
			}
			defer closeDB()

			var buf bytes.Buffer
			if err := svc.Export(cmd.Context(), args[0], format, &buf); err != nil {
				return err
			}
			if output != "" {
				return os.WriteFile(output, buf.Bytes(), 0644)
			}
			out := buf.String()
			if !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", codec.FormatMermaid, "output format: mermaid, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
