package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nconklindev/sheetsync/internal/bitable"
	"github.com/nconklindev/sheetsync/internal/ingest"
	"github.com/nconklindev/sheetsync/internal/schemafile"
	"github.com/nconklindev/sheetsync/internal/session"
	"github.com/nconklindev/sheetsync/internal/source"
	"github.com/nconklindev/sheetsync/internal/types"
	"github.com/nconklindev/sheetsync/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fieldsFile  string
	assignments []string
	dryRun      bool
	noTUI       bool
	concurrency int
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import CSV or XLSX files into the table",
	Long: `Import reads the given files (local paths or s3://bucket/key), maps
their columns onto the table's fields and creates one record per row.
Without files the interactive picker is shown.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&fieldsFile, "fields-file", "", "Read target fields from a YAML file instead of the API")
	importCmd.Flags().StringArrayVar(&assignments, "set", nil, "Map a column to a field id (column=fieldID), repeatable")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the projected records instead of submitting them")
	importCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run without the interactive interface")
	importCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Files read in parallel (overrides INGEST_CONCURRENCY)")
}

// dryRunOutput is what --dry-run --no-tui writes to stdout.
type dryRunOutput struct {
	Result  types.ImportResult      `json:"result"`
	Mapping types.Mapping           `json:"mapping"`
	Records []types.ProjectedRecord `json:"records"`
}

func runImport(cmd *cobra.Command, args []string) error {
	if noTUI && len(args) == 0 {
		return errors.New("no files given; pass at least one file or drop --no-tui")
	}

	overrides, err := parseAssignments(assignments)
	if err != nil {
		return err
	}

	logger, err := newLogger(!noTUI)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	fields, client, err := targets(logger, !dryRun)
	if err != nil {
		return err
	}

	n := cfg.Concurrency
	if concurrency > 0 {
		n = concurrency
	}

	opts := session.Options{
		Load: ingest.Options{
			Reader:      source.NewReader(cfg.AWSRegion, logger),
			Concurrency: n,
		},
		Fields: fields,
		Logger: logger,
	}

	var creator session.RecordCreator
	if client != nil {
		creator = client
	}

	if !noTUI {
		return runTUI(ui.Options{
			Locations: args,
			Session:   opts,
			Creator:   creator,
			Overrides: overrides,
			DryRun:    dryRun,
		})
	}

	opts.Locations = args
	s, err := session.Start(cmd.Context(), opts)
	if err != nil {
		return err
	}
	for col, id := range overrides {
		if err := s.Override(col, id); err != nil {
			return fmt.Errorf("--set %s=%s: %w", col, id, err)
		}
	}

	out := cmd.OutOrStdout()
	if dryRun {
		return writeJSON(out, dryRunOutput{
			Result:  s.Result(),
			Mapping: s.Mapping.Mapping(),
			Records: s.Records(),
		})
	}

	res, err := s.Submit(cmd.Context(), creator)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

func runTUI(opts ui.Options) error {
	p := tea.NewProgram(ui.InitialModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.Model); ok {
		if _, err := m.Result(); err != nil {
			return err
		}
	}
	return nil
}

// targets resolves where fields come from and, when records will be
// submitted, the client that creates them.
func targets(logger *zap.Logger, submit bool) (session.FieldLister, *bitable.Client, error) {
	var client *bitable.Client
	if submit || fieldsFile == "" {
		if err := cfg.Bitable.Validate(); err != nil {
			if submit {
				return nil, nil, fmt.Errorf("bitable config: %w", err)
			}
		} else {
			client = bitable.New(cfg.Bitable, logger)
		}
	}

	if fieldsFile != "" {
		f, err := schemafile.LoadFile(fieldsFile)
		if err != nil {
			return nil, nil, err
		}
		return f, client, nil
	}

	if client == nil {
		logger.Warn("No field source configured, every column starts unmapped")
		return nil, nil, nil
	}
	return client, client, nil
}

// parseAssignments turns column=fieldID pairs into overrides. A later pair
// for the same column wins.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		i := strings.LastIndex(pair, "=")
		if i <= 0 || i == len(pair)-1 {
			return nil, fmt.Errorf("invalid --set %q: want column=fieldID", pair)
		}
		out[pair[:i]] = pair[i+1:]
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
