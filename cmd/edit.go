package cmd

import (
	"strconv"
	"strings"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/autosave"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/session"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// consoleObserver prints save and checkpoint notifications of a session.
type consoleObserver struct {
	session.NopObserver
}

func (consoleObserver) SaveStatusChanged(docID string, status autosave.Status, err error) {
	switch status {
	case autosave.StatusSaved:
		color.Green("%s: %s", docID, status)
	case autosave.StatusFailed:
		color.Red("%s: %s: %v", docID, status, err)
	}
}

func (consoleObserver) CheckpointFailed(docID string, err error, alert bool) {
	if alert {
		color.Red("%s: checkpoints are failing: %v", docID, err)
	}
}

func (consoleObserver) CitationAttached(docID, citationID string) {
	color.Cyan("%s: attached %s", docID, citationID)
}

func editDocCmd() *cobra.Command {
	var docID string
	var title string
	var text string
	var heading int
	var cite []string
	var detach []string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "edit",
		Short:   "append text and citations to a document",
		Example: `doc edit -d <doc-id> -a "New paragraph" -s <citation-id>`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			cfg := session.DefaultConfig()
			cfg.Observer = consoleObserver{}

			s, err := session.New(ctx, c, cfg)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer func() {
				if err := s.Close(ctx); err != nil {
					logrus.Error(err)
				}
			}()

			if err := s.Open(ctx, docID); err != nil {
				logrus.Error(err)
				return
			}

			if cmd.Flag("title").Changed {
				if err := s.SetTitle(title); err != nil {
					logrus.Error(err)
					return
				}
			}

			// the canonical content ends with a newline; edits go before it
			at := s.Content().Len() - 1
			if text != "" {
				if strings.TrimSpace(delta.PlainText(s.Content())) != "" {
					at, _ = s.Insert(at, "\n", nil)
				}
				if at, err = s.Insert(at, text, nil); err != nil {
					logrus.Error(err)
					return
				}
				if heading > 0 {
					lineStart := at - len([]rune(text))
					if err := s.Format(lineStart, len([]rune(text))+1, delta.Attributes{delta.AttrHeader: heading}); err != nil {
						logrus.Error(err)
						return
					}
				}
			}

			for _, id := range unique(cite) {
				if at, err = s.Insert(at, " ", nil); err != nil {
					logrus.Error(err)
					return
				}
				if at, err = s.InsertCitation(ctx, at, id); err != nil {
					logrus.Error(err)
					return
				}
			}

			for _, id := range unique(detach) {
				if err := s.DetachCitation(id); err != nil {
					logrus.Error(err)
					return
				}
			}

			if err := s.Flush(ctx); err != nil {
				logrus.Error(err)
				return
			}

			doc := s.Document()
			printField("Title", doc.Title)
			printField("Citations", strconv.Itoa(len(doc.CitationIDs)))
			printField("Content", s.PlainText())
			for _, entry := range s.Outline() {
				printField("H"+strconv.Itoa(entry.Level), strings.Repeat("  ", entry.Level-1)+entry.Text)
			}
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&title, "title", "t", "", "rename the document")
	command.Flags().StringVarP(&text, "append", "a", "", "text to append as a new line")
	command.Flags().IntVar(&heading, "heading", 0, "format the appended line as a heading of this level")
	command.Flags().StringSliceVarP(&cite, "cite", "s", nil, "citation id to insert at the end")
	command.Flags().StringSliceVar(&detach, "detach", nil, "citation id to detach and remove from the content")
	command.Flags().SortFlags = false

	return command
}
