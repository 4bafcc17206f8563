package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fieldquote/quotesync/internal/app"
	"fieldquote/quotesync/internal/domain/session"
)

var (
	ownerID    string
	token      string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "quotesync",
	Short:         "Offline-first quote sync engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local quote API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run()
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push queued drafts to the remote store",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List quotes, merging queued drafts with the remote list",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	for _, c := range []*cobra.Command{syncCmd, listCmd} {
		c.Flags().StringVar(&ownerID, "owner", "", "owner id of the signed-in user")
		c.Flags().StringVar(&token, "token", os.Getenv("QUOTESYNC_TOKEN"), "access token forwarded to the remote store")
		_ = c.MarkFlagRequired("owner")
	}
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	workflowCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")

	rootCmd.AddCommand(serveCmd, syncCmd, listCmd, workflowCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := session.With(cmd.Context(), session.Session{OwnerID: ownerID, AccessToken: token})
	a, err := app.Setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Quotes.Sync(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "promoted %d draft(s)\n", n)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := session.With(cmd.Context(), session.Session{OwnerID: ownerID, AccessToken: token})
	a, err := app.Setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Quotes.List(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	if res.FromCache {
		fmt.Fprintln(cmd.OutOrStdout(), "remote store unreachable, showing cached quotes")
	}
	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tCLIENT\tSTATUS\tTOTAL\tCREATED\tPENDING")
	for _, q := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			q.ID, q.ClientName, q.Status, q.Total.StringFixed(2), q.CreatedAt.Format("2006-01-02 15:04"), q.Pending)
	}
	return w.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
