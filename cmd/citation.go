package cmd

import (
	"os"
	"time"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var citationCmd = &cobra.Command{
	Use:   "citation",
	Short: "citation commands",
}

func init() {
	citationCmd.AddCommand(searchCitationCmd())
	citationCmd.AddCommand(getCitationCmd())
	citationCmd.AddCommand(addCitationCmd())
}

func searchCitationCmd() *cobra.Command {
	var query string
	var limit int

	command := &cobra.Command{
		Use:     "search",
		Short:   "search your citations",
		Example: "doc citation search -q <query> -l 10",
		Run: func(cmd *cobra.Command, args []string) {
			c, ctx := newClient()
			citations, err := c.SearchCitations(ctx, query, limit)
			if err != nil {
				logrus.Error(err)
				return
			}
			renderCitations(citations)
		},
	}

	command.Flags().StringVarP(&query, "query", "q", "", "search text")
	command.Flags().IntVarP(&limit, "limit", "l", 5, "number of citations")
	command.Flags().SortFlags = false

	return command
}

func getCitationCmd() *cobra.Command {
	var ids []string

	var required = []string{"id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get citations by id",
		Example: "doc citation get -i <id> -i <id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			citations, err := c.GetCitationsByIDs(ctx, unique(ids))
			if err != nil {
				logrus.Error(err)
				return
			}
			renderCitations(citations)
		},
	}

	command.Flags().StringSliceVarP(&ids, "id", "i", nil, "citation id (required)")

	return command
}

func addCitationCmd() *cobra.Command {
	var req v1.CreateCitationRequest

	var required = []string{"url"}

	command := &cobra.Command{
		Use:     "add",
		Short:   "save a citation",
		Example: `doc citation add -u https://example.com/a -e "quoted text" -a Doe -y 2024`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			citation, err := c.CreateCitation(ctx, &req)
			if err != nil {
				logrus.Error(err)
				return
			}
			renderCitations([]v1.Citation{*citation})
			printField("Token", delta.Token(citation.ID))
		},
	}

	command.Flags().StringVarP(&req.URL, "url", "u", "", "source url (required)")
	command.Flags().StringVarP(&req.Excerpt, "excerpt", "e", "", "quoted excerpt")
	command.Flags().StringVarP(&req.FullText, "full-text", "f", "", "formatted reference")
	command.Flags().StringVar(&req.Format, "format", "", "reference style, e.g. apa")
	command.Flags().StringVarP(&req.Metadata.Author, "author", "a", "", "author")
	command.Flags().StringVarP(&req.Metadata.Year, "year", "y", "", "year")
	command.Flags().StringVarP(&req.Metadata.Title, "title", "t", "", "source title")
	command.Flags().SortFlags = false

	return command
}

func renderCitations(citations []v1.Citation) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Label", "URL", "Created"})
	for _, citation := range citations {
		label := delta.Label(citation.Metadata.Author, citation.Metadata.Year, citation.URL)
		table.Append([]string{citation.ID, label, citation.URL, citation.CreatedAt.Format(time.RFC3339)})
	}
	table.Render()
}
