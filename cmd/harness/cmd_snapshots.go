package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect stored snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshot identities",
	Args:  cobra.NoArgs,
	RunE:  listSnapshots,
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete <identity>...",
	Short: "Delete snapshots so the next run records them again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  deleteSnapshots,
}

func init() {
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsDeleteCmd)
}

func listSnapshots(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := store.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func deleteSnapshots(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, id := range args {
		if err := store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete %q: %w", id, err)
		}
		log.Info("snapshot deleted", "identity", id)
	}
	return nil
}
