package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/obcdbg/internal/config"
	"github.com/five82/obcdbg/internal/console"
	"github.com/five82/obcdbg/internal/logtail"
)

const tailTimeLayout = "15:04:05.000000"

func newTailCommand() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "tail [channel]",
		Short: "Print the last lines of a channel log",
		Long: `Print the last persisted records of a channel's log file, aligned the way
the console shows them. The channel defaults to Main CPU.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := config.ChannelMain
			if len(args) == 1 {
				resolved, err := resolveChannel(args[0])
				if err != nil {
					return err
				}
				name = resolved
			}

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			path := cfg.LogPath(name)
			records, skipped, err := logtail.ReadRecords(path, lines)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			color := isTerminal(out)
			for _, rec := range records {
				text := console.FormatFields(rec.Fields(), cfg.TabLen)
				if color {
					text = console.Style(rec.Level).Render(text)
				}
				if _, err := fmt.Fprintf(out, "%s  %-5s  %s\n", rec.Time.Format(tailTimeLayout), rec.Level, text); err != nil {
					return err
				}
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d unreadable lines\n", skipped)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines; 0 prints the whole file")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
