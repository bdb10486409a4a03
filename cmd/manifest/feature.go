// Feature commands manage the permanent feature tree.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifest/internal/sqlite"
	"github.com/mesh-intelligence/manifest/pkg/types"
)

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Manage the feature tree",
}

var (
	featureParent  string
	featureTitle   string
	featureStory   string
	featureDetails string
	featureState   string
)

var featureAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new feature",
	Long: `Add creates a feature, as a root or under a parent.

Example:
  manifest feature add --title "Authentication"
  manifest feature add --title "Login" --parent <id> --story "As a user I can sign in"`,
	RunE: runFeatureAdd,
}

var featureShowCmd = &cobra.Command{
	Use:   "show <feature-id>",
	Short: "Show one feature with its criteria",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeatureShow,
}

var featureListCmd = &cobra.Command{
	Use:   "list [parent-id]",
	Short: "List root features, or the children of a parent",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFeatureList,
}

var featureTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the whole feature tree",
	RunE:  runFeatureTree,
}

var featureUpdateCmd = &cobra.Command{
	Use:   "update <feature-id>",
	Short: "Update feature fields or move it in the tree",
	Long: `Update applies a partial update. Use --parent with an empty value to
move a feature to the root.

Example:
  manifest feature update <id> --state implemented
  manifest feature update <id> --parent ""`,
	Args: cobra.ExactArgs(1),
	RunE: runFeatureUpdate,
}

var featureDeleteCmd = &cobra.Command{
	Use:   "delete <feature-id>",
	Short: "Delete a leaf feature and its criteria, notes and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeatureDelete,
}

func init() {
	featureAddCmd.Flags().StringVar(&featureTitle, "title", "", "feature title (required)")
	featureAddCmd.Flags().StringVar(&featureParent, "parent", "", "parent feature id (omit for a root feature)")
	featureAddCmd.Flags().StringVar(&featureStory, "story", "", "narrative description")
	featureAddCmd.Flags().StringVar(&featureDetails, "details", "", "technical notes")
	featureAddCmd.Flags().StringVar(&featureState, "state", "", "initial state (default: proposed)")
	_ = featureAddCmd.MarkFlagRequired("title")

	featureUpdateCmd.Flags().StringVar(&featureTitle, "title", "", "new title")
	featureUpdateCmd.Flags().StringVar(&featureParent, "parent", "", "new parent id (empty value moves to root)")
	featureUpdateCmd.Flags().StringVar(&featureStory, "story", "", "new story")
	featureUpdateCmd.Flags().StringVar(&featureDetails, "details", "", "new details")
	featureUpdateCmd.Flags().StringVar(&featureState, "state", "", "new state")

	featureCmd.AddCommand(featureAddCmd)
	featureCmd.AddCommand(featureShowCmd)
	featureCmd.AddCommand(featureListCmd)
	featureCmd.AddCommand(featureTreeCmd)
	featureCmd.AddCommand(featureUpdateCmd)
	featureCmd.AddCommand(featureDeleteCmd)
}

func runFeatureAdd(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	in := types.CreateFeatureInput{
		Title: featureTitle,
		State: featureState,
	}
	if featureParent != "" {
		in.ParentID = &featureParent
	}
	if featureStory != "" {
		in.Story = &featureStory
	}
	if featureDetails != "" {
		in.Details = &featureDetails
	}

	feature, err := backend.CreateFeature(in)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(feature)
	}
	fmt.Printf("Created feature: %s\n", feature.ID)
	return nil
}

func runFeatureShow(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	feature, err := backend.GetFeature(args[0])
	if err != nil {
		return err
	}
	criteria, err := backend.ListCriteria(feature.ID)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(struct {
			Feature  *types.Feature
			Criteria []types.Criterion
		}{feature, criteria})
	}

	fmt.Printf("Feature: %s (%s)\n", feature.Title, feature.ID)
	fmt.Printf("State: %s\n", feature.State)
	fmt.Printf("Parent: %s\n", optStr(feature.ParentID))
	fmt.Printf("Story: %s\n", optStr(feature.Story))
	fmt.Printf("Details: %s\n", optStr(feature.Details))
	fmt.Printf("Updated: %s\n", feature.UpdatedAt.Format("2006-01-02 15:04:05"))
	if len(criteria) > 0 {
		fmt.Println("Criteria:")
		for _, c := range criteria {
			fmt.Printf("  [%s] %s (%s)\n", c.Status, c.Description, c.ID)
		}
	}
	return nil
}

func runFeatureList(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	var features []types.Feature
	if len(args) == 1 {
		features, err = backend.ListChildFeatures(args[0])
	} else {
		features, err = backend.ListRootFeatures()
	}
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(features)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATE")
	for _, f := range features {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Title, f.State)
	}
	return w.Flush()
}

func runFeatureTree(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	roots, err := backend.ListRootFeatures()
	if err != nil {
		return err
	}

	if flagJSON {
		tree, err := collectTree(backend, roots)
		if err != nil {
			return err
		}
		return printJSON(tree)
	}

	for _, root := range roots {
		if err := printTree(backend, root, 0); err != nil {
			return err
		}
	}
	return nil
}

// featureNode is the JSON shape of one tree node.
type featureNode struct {
	types.Feature
	Children []featureNode
}

func collectTree(backend *sqlite.Backend, features []types.Feature) ([]featureNode, error) {
	nodes := make([]featureNode, 0, len(features))
	for _, f := range features {
		children, err := backend.ListChildFeatures(f.ID)
		if err != nil {
			return nil, err
		}
		childNodes, err := collectTree(backend, children)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, featureNode{Feature: f, Children: childNodes})
	}
	return nodes, nil
}

func printTree(backend *sqlite.Backend, feature types.Feature, depth int) error {
	fmt.Printf("%s%s [%s] (%s)\n", strings.Repeat("  ", depth), feature.Title, feature.State, feature.ID)
	children, err := backend.ListChildFeatures(feature.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := printTree(backend, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func runFeatureUpdate(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	in := types.UpdateFeatureInput{
		ParentID: ptrIfSet(cmd.Flags().Changed("parent"), featureParent),
		Title:    ptrIfSet(cmd.Flags().Changed("title"), featureTitle),
		Story:    ptrIfSet(cmd.Flags().Changed("story"), featureStory),
		Details:  ptrIfSet(cmd.Flags().Changed("details"), featureDetails),
		State:    ptrIfSet(cmd.Flags().Changed("state"), featureState),
	}

	feature, err := backend.UpdateFeature(args[0], in)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(feature)
	}
	fmt.Printf("Updated feature: %s\n", feature.ID)
	return nil
}

func runFeatureDelete(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	if err := backend.DeleteFeature(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted feature: %s\n", args[0])
	return nil
}
