package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arrivalkit/formpilot/pkg/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect captured arrival card records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list <passport-id>",
	Short: "List records for a passport, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListByPassport(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDESTINATION\tCONFIRMATION\tCAPTURED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.ID, r.DestinationID, r.Artifact.ConfirmationNumber,
				r.Artifact.CapturedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var recordsGetOut string

var recordsGetCmd = &cobra.Command{
	Use:   "get <record-id>",
	Short: "Show one record in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		r, err := db.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:            %s\n", r.ID)
		fmt.Printf("Passport:      %s\n", r.PassportID)
		fmt.Printf("Destination:   %s\n", r.DestinationID)
		fmt.Printf("Confirmation:  %s\n", r.Artifact.ConfirmationNumber)
		fmt.Printf("Code payload:  %s\n", truncate(r.Artifact.CodePayload, 60))
		fmt.Printf("Document ref:  %s\n", r.Artifact.DocumentRef)
		fmt.Printf("Captured at:   %s\n", r.Artifact.CapturedAt.Format("2006-01-02 15:04:05"))

		if recordsGetOut != "" {
			if err := exportCodePayload(r.Artifact.CodePayload, recordsGetOut); err != nil {
				return err
			}
			fmt.Printf("Code payload written to %s\n", recordsGetOut)
		}
		return nil
	},
}

// exportCodePayload writes the scannable code to a file so the host can
// re-render it offline. Data URIs are decoded; anything else (a URL or
// raw payload) is written as-is.
func exportCodePayload(payload, path string) error {
	if payload == "" {
		return fmt.Errorf("record has no code payload")
	}
	data := []byte(payload)
	if idx := strings.Index(payload, ";base64,"); strings.HasPrefix(payload, "data:") && idx > 0 {
		decoded, err := base64.StdEncoding.DecodeString(payload[idx+len(";base64,"):])
		if err != nil {
			return fmt.Errorf("failed to decode code payload: %w", err)
		}
		data = decoded
	}
	return os.WriteFile(path, data, 0600)
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(viper.GetString("db-path"))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	recordsGetCmd.Flags().StringVar(&recordsGetOut, "out", "", "Write the scannable code payload to this file")
	recordsCmd.AddCommand(recordsListCmd, recordsGetCmd, recordsDeleteCmd)
	rootCmd.AddCommand(recordsCmd)
}
