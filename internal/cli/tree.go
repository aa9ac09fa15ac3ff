package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/hiereval/internal/pipeline"
	"github.com/ppiankov/hiereval/internal/taxonomy"
	"github.com/spf13/cobra"
)

var (
	ancestorsOf string
	nodeInfo    string
	exportTree  bool
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Inspect a dataset taxonomy",
	Long: `Tree loads and validates a taxonomy, then prints its root, size and depth.

Example:
  hiereval tree --dataset icecat
  hiereval tree --tree taxonomy.yaml --ancestors "Smartphones"
  hiereval tree --dataset icecat --node "Phones"
  hiereval tree --dataset wdc --export > tree_wdc.yaml`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().StringVar(&ancestorsOf, "ancestors", "", "list the ancestors of this category")
	treeCmd.Flags().StringVar(&nodeInfo, "node", "", "show the depth, parents and children of this category")
	treeCmd.Flags().BoolVar(&exportTree, "export", false, "write the normalized edge-list artifact to stdout")
}

func runTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, newLogger(cfg, os.Stderr))
	tree, err := p.Tree(cfg.Data.Dataset)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if exportTree {
		return taxonomy.Encode(out, tree, cfg.Data.Dataset)
	}

	if ancestorsOf != "" {
		ancestors, err := tree.Ancestors(ancestorsOf)
		if err != nil {
			return err
		}
		for _, a := range ancestors {
			marker := ""
			if a.ID == tree.Root().ID {
				marker = " (root, not scored)"
			}
			fmt.Fprintf(out, "%d\t%s%s\n", a.Distance, a.Name, marker)
		}
		return nil
	}

	if nodeInfo != "" {
		return printNode(out, tree, nodeInfo)
	}

	nodes := tree.Nodes()
	leaves := 0
	for _, n := range nodes {
		children, err := tree.Children(n.Name)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			leaves++
		}
	}

	fmt.Fprintf(out, "Root:        %s\n", tree.Root().Name)
	fmt.Fprintf(out, "Nodes:       %d\n", len(nodes))
	fmt.Fprintf(out, "Leaves:      %d\n", leaves)
	fmt.Fprintf(out, "Categories:  %d\n", len(tree.Categories()))
	fmt.Fprintf(out, "Edges:       %d\n", len(tree.Edges()))
	fmt.Fprintf(out, "Max depth:   %d\n", tree.MaxDepth())

	return nil
}

func printNode(out io.Writer, tree *taxonomy.Tree, name string) error {
	depth, err := tree.Depth(name)
	if err != nil {
		return err
	}
	parents, err := tree.Parents(name)
	if err != nil {
		return err
	}
	children, err := tree.Children(name)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Category:    %s\n", name)
	fmt.Fprintf(out, "Depth:       %d\n", depth)
	fmt.Fprintf(out, "Parents:     %s\n", strings.Join(parents, ", "))
	fmt.Fprintf(out, "Children:    %s\n", strings.Join(children, ", "))
	return nil
}
