package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIC/internal/config"
	"github.com/OpenTraceLab/OpenTraceIC/internal/logging"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/pinmap"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/tester"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/transport"
)

var (
	// Global flags
	verbose    bool
	configPath string
	boardName  string
	boardsDir  string
	portName   string
	baudRate   int

	// Resolved in PersistentPreRunE
	cfg    config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "ictest",
	Short: "Digital IC tester host tool",
	Long: `Drive an Arduino-based IC tester: encode test plans for logic gates,
flip-flops, multiplexers, counters and the NE555 timer, send them to the
board and decode its pass/fail replies.

Examples:
  ictest boards                                  # List boards and pin codes
  ictest encode plans/74hc08.toml                # Show the packet a plan sends
  ictest run plans/74hc08.toml --port sim        # Run against the simulator
  ictest run plans/74hc08.toml --port /dev/ttyACM0 --pdf report.pdf
  ictest counter-preset 4017 --board MEGA        # Emit a counter plan`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVarP(&boardName, "board", "b", "",
		"board the pin names refer to (UNO, MEGA or a loaded board)")
	rootCmd.PersistentFlags().StringVar(&boardsDir, "boards-dir", "",
		"directory of *.board pin-map files to load")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "",
		"serial port of the tester, or \"sim\" for the simulator")
	rootCmd.PersistentFlags().IntVar(&baudRate, "baud", 0, "serial baud rate (default 115200)")
}

// setup loads the config file, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	c, err := config.LoadOptional(path)
	if err != nil {
		return err
	}
	if boardName != "" {
		c.Board = boardName
	}
	if boardsDir != "" {
		c.BoardsDir = boardsDir
	}
	if portName != "" {
		c.Port = portName
	}
	if baudRate > 0 {
		c.Baud = baudRate
	}
	cfg = c

	lc := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
		lc.Level = lvl
	}
	logging.ApplyEnvOverrides(&lc)
	if verbose {
		lc.Level = zerolog.DebugLevel
	}
	logger = logging.New("ictest", lc)
	return nil
}

// loadBoard returns the board selected by flag or config.
func loadBoard() (*pinmap.Board, error) {
	reg := pinmap.DefaultRegistry()
	if cfg.BoardsDir != "" {
		if err := reg.LoadDir(cfg.BoardsDir); err != nil {
			return nil, fmt.Errorf("load boards: %w", err)
		}
	}
	return reg.Lookup(cfg.Board)
}

// openTester opens the configured port and wraps it in a tester.
func openTester() (*tester.Tester, io.Closer, error) {
	var (
		tr     tester.Transport
		closer io.Closer
	)
	switch cfg.Port {
	case "":
		return nil, nil, fmt.Errorf("no port given: use --port <device> or --port %s", transport.SimPort)
	case transport.SimPort, "simulator":
		sim := transport.NewSim()
		tr, closer = sim, sim
	default:
		logger.Debug().Str("port", cfg.Port).Dur("reset_delay", cfg.ResetDelay).Msg("waiting for board reset")
		s, err := transport.OpenSerial(cfg.Port, cfg.Baud, transport.WithResetDelay(cfg.ResetDelay))
		if err != nil {
			return nil, nil, err
		}
		tr, closer = s, s
	}
	logger.Debug().Str("port", cfg.Port).Int("baud", cfg.Baud).Msg("port open")

	t, err := tester.New(tr, &cfg.Tester, tester.WithLogger(logger))
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return t, closer, nil
}
