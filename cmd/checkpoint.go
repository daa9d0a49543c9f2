package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/client"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/session"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "checkpoint commands",
}

func init() {
	checkpointCmd.AddCommand(listCheckpointCmd())
	checkpointCmd.AddCommand(createCheckpointCmd())
}

func listCheckpointCmd() *cobra.Command {
	var docID string
	var limit int

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "list",
		Short:   "list the newest checkpoints of a document",
		Example: "doc checkpoint list -d <doc-id> -l 20",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			checkpoints, err := c.ListCheckpoints(ctx, docID, limit)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Created"})
			for _, cp := range checkpoints {
				table.Append([]string{cp.ID, cp.CreatedAt.Format(time.RFC3339)})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().IntVarP(&limit, "limit", "l", session.DefaultCheckpointListLimit, "number of checkpoints")
	command.Flags().SortFlags = false

	return command
}

func createCheckpointCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "checkpoint the saved content of a document",
		Example: "doc checkpoint create -d <doc-id>",
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

			cp, err := c.CreateCheckpoint(ctx, docID, &v1.CreateCheckpointRequest{
				ContentDelta: contentOf(doc).Bytes(),
				ContentHTML:  doc.ContentHTML,
			})
			if errors.Is(err, client.ErrCheckpointsNotConfigured) {
				color.Yellow("checkpoints are not configured on the server")
				return
			}
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("Checkpoint", cp.ID)
			printField("Created", cp.CreatedAt.Format(time.RFC3339))
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func restoreDocCmd() *cobra.Command {
	var docID string
	var checkpointID string
	var yes bool
	var abortOnFailure bool

	var required = []string{"doc-id", "checkpoint-id"}

	command := &cobra.Command{
		Use:     "restore",
		Short:   "restore a document to a checkpoint",
		Example: "doc restore -d <doc-id> -k <checkpoint-id> -y",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			c, ctx := newClient()
			cfg := session.DefaultConfig()
			cfg.AbortRestoreOnCheckpointFailure = abortOnFailure

			s, err := session.New(ctx, c, cfg)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer s.Close(ctx)

			if err := s.Open(ctx, docID); err != nil {
				logrus.Error(err)
				return
			}

			confirm := func() bool {
				return yes || promptYes("Restore this checkpoint? The current content is checkpointed first.")
			}
			if err := s.Restore(ctx, checkpointID, confirm); err != nil {
				if errors.Is(err, session.ErrRestoreNotConfirmed) {
					color.Yellow("restore cancelled")
					return
				}
				logrus.Error(err)
				return
			}

			color.Green("restored %s", checkpointID)
			printField("Content", delta.PlainText(s.Content()))
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&checkpointID, "checkpoint-id", "k", "", "checkpoint id (required)")
	command.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	command.Flags().BoolVar(&abortOnFailure, "abort-on-checkpoint-failure", false, "do not restore when the current content cannot be checkpointed")
	command.Flags().SortFlags = false

	return command
}

func promptYes(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
