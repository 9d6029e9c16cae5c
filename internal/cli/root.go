// Package cli implements the obcdbg commands.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/obcdbg/internal/app"
	"github.com/five82/obcdbg/internal/config"
)

type rootFlags struct {
	configPath string
	prefsPath  string
	channel    string
	port       string
	baud       int
	level      string
	logFile    string
	debugLog   string
	debug      bool
	tick       time.Duration
	headless   bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "obcdbg",
		Short: "Console for on-board computer serial telemetry",
		Long: `obcdbg reads LEVEL,field,... telemetry lines from a serial port, filters
them by level and shows them in a terminal console. Every rendered line is
appended to the channel's log file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := resolveChannel(f.channel)
			if err != nil {
				return err
			}
			opts := app.Options{
				ConfigPath:      f.configPath,
				PrefsPath:       f.prefsPath,
				Channel:         channel,
				Port:            f.port,
				Baud:            f.baud,
				Level:           f.level,
				LogFile:         f.logFile,
				DiagnosticsPath: f.debugLog,
				Debug:           f.debug,
				Tick:            f.tick,
				Out:             cmd.OutOrStdout(),
			}
			if f.headless {
				return app.RunHeadless(cmd.Context(), opts)
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default ~/.config/obcdbg/config.toml)")

	fl := cmd.Flags()
	fl.StringVar(&f.prefsPath, "prefs", "", "preferences file (default ~/.config/obcdbg/prefs.toml)")
	fl.StringVar(&f.channel, "channel", "", "channel: main, transmit or receive (default: last used)")
	fl.StringVar(&f.port, "port", "", "serial device (default: the channel's last port)")
	fl.IntVar(&f.baud, "baud", 0, "baud rate (default: the channel's last rate)")
	fl.StringVar(&f.level, "level", "", "minimum level: DEBUG, INFO, WARN, ERROR, FATAL or NONE")
	fl.StringVar(&f.logFile, "log-file", "", "set and remember the channel's log file")
	fl.StringVar(&f.debugLog, "debug-log", "", "diagnostics file, or - for stderr (default "+app.DefaultDiagnosticsPath+")")
	fl.BoolVar(&f.debug, "debug", false, "log debug diagnostics")
	fl.DurationVar(&f.tick, "tick", app.DefaultTick, "render interval; one record is drawn per tick")
	fl.BoolVar(&f.headless, "headless", false, "open the port immediately and print to stdout")

	cmd.AddCommand(newPortsCommand())
	cmd.AddCommand(newTailCommand())
	return cmd
}

// Execute runs the CLI with the given arguments, excluding the program name.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// resolveChannel accepts a full channel name or a case-insensitive prefix
// such as "main" or "rx". Empty stays empty.
func resolveChannel(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || config.IsChannel(name) {
		return name, nil
	}
	lower := strings.ToLower(name)
	aliases := map[string]string{
		"tx": config.ChannelTransmit,
		"rx": config.ChannelReceive,
	}
	if ch, ok := aliases[lower]; ok {
		return ch, nil
	}
	for _, ch := range config.Channels() {
		if strings.HasPrefix(strings.ToLower(ch), lower) {
			return ch, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", config.ErrUnknownChannel, name, strings.Join(config.Channels(), ", "))
}
