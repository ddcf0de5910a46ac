package cli

import (
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/netphils/cefdetector-standalone/internal/app"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/format"
	"github.com/spf13/cobra"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Count installed applications, analyze them and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := tea.LogToFile(appConfig.UI.LogFile, "cefdetector")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()

		opts := []tea.ProgramOption{tea.WithOutput(cmd.OutOrStdout())}
		if scanJSON {
			opts = []tea.ProgramOption{tea.WithOutput(io.Discard), tea.WithInput(nil)}
		}

		p := tea.NewProgram(app.NewInline(newBackend()), opts...)
		final, err := p.Run()
		if err != nil {
			return err
		}
		m := final.(*app.Inline)
		if m.Err() != nil {
			return fmt.Errorf("scan failed: %w", m.Err())
		}
		if scanJSON {
			return printJSON(cmd.OutOrStdout(), m)
		}
		return nil
	},
}

type scanReport struct {
	Count          int                     `json:"count"`
	TotalSize      uint64                  `json:"totalSize"`
	TotalSizeHuman string                  `json:"totalSizeHuman"`
	Items          []client.DiscoveredItem `json:"items"`
}

func printJSON(w io.Writer, m *app.Inline) error {
	sum, _, _ := m.Session().LastSummary()
	report := scanReport{
		Count:          sum.Count,
		TotalSize:      sum.SizeBytes,
		TotalSizeHuman: format.FormatSize(sum.SizeBytes),
		Items:          m.Session().Results().Items(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output in JSON format")
}
