package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	docRefresh bool
	docJSON    bool
	docList    bool
)

var docCmd = &cobra.Command{
	Use:   "doc [name]",
	Short: "Show a reassembled leaflet document",
	Long: `Show the full leaflet for one medicine, reassembled from its stored chunks.

Examples:
  pharmarag doc Aspirin
  pharmarag doc aspirin --json
  pharmarag doc --list    # every stored chunk, one entry each`,
	RunE: runDoc,
}

func init() {
	rootCmd.AddCommand(docCmd)
	docCmd.Flags().BoolVar(&docRefresh, "refresh", false, "bypass cached results")
	docCmd.Flags().BoolVar(&docJSON, "json", false, "output as JSON")
	docCmd.Flags().BoolVar(&docList, "list", false, "list all stored entries instead of one document")
}

func runDoc(cmd *cobra.Command, args []string) error {
	svc, st, err := newService()
	if err != nil {
		return err
	}
	defer st.Close()

	if docList {
		docs, err := svc.Documents.ListAll()
		if err != nil {
			return fmt.Errorf("list failed: %w", err)
		}
		if docJSON {
			output, _ := json.MarshalIndent(docs, "", "  ")
			fmt.Println(string(output))
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%s\t%s\n", d.Name, d.Filename)
		}
		fmt.Printf("\n%d entries\n", len(docs))
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("medicine name required (or use --list)")
	}
	name := strings.TrimSpace(strings.Join(args, " "))

	doc, found, err := svc.Documents.GetByName(name, docRefresh)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	if !found {
		return fmt.Errorf("no document found for %q", name)
	}

	if docJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("# %s (%s)\n\n%s\n", doc.Name, doc.Filename, doc.Content)
	return nil
}
