package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pharmarag/internal/domain"
)

var (
	namesPage     int
	namesPageSize int
	namesSearch   string
	namesRefresh  bool
	namesJSON     bool
	namesStore    bool
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Browse the medicine name catalog",
	Long: `List or search the medicine name catalog, one page at a time.

Examples:
  pharmarag names
  pharmarag names --page 2 --page-size 50
  pharmarag names --search asp
  pharmarag names --store    # names actually present in the backing store`,
	RunE: runNames,
}

func init() {
	rootCmd.AddCommand(namesCmd)
	namesCmd.Flags().IntVarP(&namesPage, "page", "p", 1, "page number")
	namesCmd.Flags().IntVar(&namesPageSize, "page-size", 20, "names per page (max 100)")
	namesCmd.Flags().StringVarP(&namesSearch, "search", "s", "", "filter names (1-2 chars match prefixes, longer match anywhere)")
	namesCmd.Flags().BoolVar(&namesRefresh, "refresh", false, "bypass cached results")
	namesCmd.Flags().BoolVar(&namesJSON, "json", false, "output as JSON")
	namesCmd.Flags().BoolVar(&namesStore, "store", false, "list distinct names from the backing store instead of the catalog")
}

func runNames(cmd *cobra.Command, args []string) error {
	svc, st, err := newService()
	if err != nil {
		return err
	}
	defer st.Close()

	if namesStore {
		names, err := svc.NamesFromStore(namesRefresh)
		if err != nil {
			return fmt.Errorf("store names failed: %w", err)
		}
		if namesJSON {
			output, _ := json.MarshalIndent(names, "", "  ")
			fmt.Println(string(output))
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		fmt.Printf("\n%d names in store\n", len(names))
		return nil
	}

	var page domain.NamePage
	if namesSearch != "" {
		page, err = svc.Names.Search(namesSearch, namesPage, namesPageSize, namesRefresh)
	} else {
		page, err = svc.Names.Page(namesPage, namesPageSize, namesRefresh)
	}
	if err != nil {
		return fmt.Errorf("names failed: %w", err)
	}

	if namesJSON {
		output, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, name := range page.Names {
		fmt.Println(name)
	}
	fmt.Printf("\nPage %d of %d (%d names total)\n", page.Page, page.TotalPages, page.TotalCount)
	return nil
}
