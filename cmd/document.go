package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func createDocCmd() *cobra.Command {
	var title string
	var content string

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a document",
		Example: "doc create -t <title> -c <content>",
		Run: func(cmd *cobra.Command, args []string) {
			c, ctx := newClient()

			doc, err := c.CreateDocument(ctx, title)
			if err != nil {
				logrus.Error(err)
				return
			}

			if content != "" {
				doc, err = c.UpdateDocument(ctx, doc.ID, &v1.UpdateDocumentRequest{
					ContentDelta: delta.Text(content).Bytes(),
					CitationIDs:  doc.CitationIDs,
				})
				if err != nil {
					logrus.Error(err)
					return
				}
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title"})
			table.Append([]string{doc.ID, doc.Title})
			table.Render()
		},
	}

	command.Flags().StringVarP(&title, "title", "t", "", "title of the document")
	command.Flags().StringVarP(&content, "content", "c", "", "plain text content")
	command.Flags().SortFlags = false

	return command
}

func getDocCmd() *cobra.Command {
	var docID string
	var showOutline bool

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document",
		Example: "doc get -d <doc-id> -o",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			doc, err := c.GetDocument(ctx, docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			content := contentOf(doc)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Citations", "Updated"})
			table.Append([]string{doc.ID, doc.Title, strconv.Itoa(len(doc.CitationIDs)), doc.UpdatedAt.Format(time.RFC3339)})
			table.Render()
			printField("Content", delta.PlainText(content))

			if showOutline {
				for _, entry := range delta.BuildOutline(content) {
					printField("H"+strconv.Itoa(entry.Level), strings.Repeat("  ", entry.Level-1)+entry.Text)
				}
			}
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().BoolVarP(&showOutline, "outline", "o", false, "print the heading outline")

	command.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	command.Flags().SortFlags = false

	return command
}

func listDocCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "list documents",
		Run: func(cmd *cobra.Command, args []string) {
			c, ctx := newClient()
			docs, err := c.ListDocuments(ctx)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Created", "Updated"})
			for _, doc := range docs {
				table.Append([]string{doc.ID, doc.Title, doc.CreatedAt.Format(time.RFC3339), doc.UpdatedAt.Format(time.RFC3339)})
			}

			table.Render()
		},
	}

	command.Flags().SortFlags = false

	return command
}

func updateDocCmd() *cobra.Command {
	var docID string
	var title string
	var content string
	var citations []string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "update",
		Short:   "update a document",
		Example: "doc update -d <doc-id> -t <title> -c <content> -s <citation-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			doc, err := c.GetDocument(ctx, docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			req := &v1.UpdateDocumentRequest{
				CitationIDs: unique(append(doc.CitationIDs, citations...)),
			}
			if cmd.Flag("title").Changed {
				req.Title = &title
			}
			if cmd.Flag("content").Changed {
				req.ContentDelta = delta.Text(content).Bytes()
			}

			doc, err = c.UpdateDocument(ctx, docID, req)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Citations", "Updated"})
			table.Append([]string{doc.ID, doc.Title, strconv.Itoa(len(doc.CitationIDs)), doc.UpdatedAt.Format(time.RFC3339)})
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&title, "title", "t", "", "title of the document")
	command.Flags().StringVarP(&content, "content", "c", "", "plain text content, replaces the current content")
	command.Flags().StringSliceVarP(&citations, "citation", "s", nil, "citation id to attach")
	command.Flags().SortFlags = false

	return command
}

func exportDocCmd() *cobra.Command {
	var docID string
	var format string
	var output string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "export",
		Short:   "export a document as text or html",
		Example: "doc export -d <doc-id> -f html -o paper.html",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			res, err := c.ExportDocument(ctx, docID, format)
			if err != nil {
				logrus.Error(err)
				return
			}

			data, err := base64.StdEncoding.DecodeString(res.FileContent)
			if err != nil {
				logrus.Error(err)
				return
			}

			if output == "-" {
				fmt.Print(string(data))
				return
			}
			if output == "" {
				output = res.Filename
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				logrus.Error(err)
				return
			}
			color.Green("exported %s (%s)", output, res.MediaType)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&format, "format", "f", "txt", "export format: txt or html")
	command.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	command.Flags().SortFlags = false

	return command
}

func contentOf(doc *v1.Document) delta.Delta {
	if len(doc.ContentDelta) == 0 {
		return delta.Empty()
	}
	return delta.Normalize(doc.ContentDelta)
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns true if any is missing
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		cmd.Usage()

		return true
	}

	return false
}

// unique returns a slice with unique elements
func unique(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	j := 0
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		s[j] = v
		j++
	}
	return s[:j]
}
