package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the fields of the target table",
	RunE:  runFields,
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsFile, "fields-file", "", "Read fields from a YAML file instead of the API")
}

func runFields(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(false)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	lister, _, err := targets(logger, false)
	if err != nil {
		return err
	}
	if lister == nil {
		return errors.New("no field source: set BITABLE_APP_TOKEN, BITABLE_TABLE_ID and BITABLE_TOKEN or pass --fields-file")
	}

	fields, err := lister.ListFields(cmd.Context())
	if err != nil {
		return err
	}
	return printFields(cmd.OutOrStdout(), fields)
}

func printFields(w io.Writer, fields []types.TargetField) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\n", f.ID, f.Name)
	}
	return tw.Flush()
}
