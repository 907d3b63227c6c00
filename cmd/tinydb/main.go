package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/RichardKnop/tinydb/internal/pkg/logging"
	"github.com/RichardKnop/tinydb/internal/repl"
	"github.com/RichardKnop/tinydb/internal/tinydb"
)

var (
	dbFlag          string
	logLevelFlag    string
	metricsAddrFlag string
	historyFlag     string
	maxPagesFlag    uint
	boxFlag         bool
)

func init() {
	flag.StringVar(&dbFlag, "db", "", "Database file to open, the first positional argument works too")
	flag.StringVar(&logLevelFlag, "log-level", "", "Log level, defaults to LOG_LEVEL env or info")
	flag.StringVar(&metricsAddrFlag, "metrics-addr", "", "Address to serve Prometheus metrics on, disabled when empty")
	flag.StringVar(&historyFlag, "history", "", "File to keep command history in")
	flag.UintVar(&maxPagesFlag, "max-pages", tinydb.DefaultMaxPages, "Maximum number of pages in the database file")
	flag.BoolVar(&boxFlag, "box", false, "Print selected records as a boxed table")
}

func main() {
	flag.Parse()

	logger, err := logging.New(logLevelFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() // flushes buffer, if any

	if err := run(logger); err != nil {
		logger.Error("tinydb exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	tableOptions := []tinydb.Option{
		tinydb.WithLogger(logger),
		tinydb.WithMetrics(tinydb.NewMetrics(reg)),
		tinydb.WithMaxPages(uint32(maxPagesFlag)),
	}

	if metricsAddrFlag != "" {
		metricsServer := serveMetrics(logger, reg, metricsAddrFlag)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	dbPath := dbFlag
	if dbPath == "" && flag.NArg() > 0 {
		dbPath = flag.Arg(0)
	}

	var aTable *tinydb.Table
	if dbPath != "" {
		var err error
		aTable, err = tinydb.Open(ctx, dbPath, tableOptions...)
		if err != nil {
			return fmt.Errorf("open %s: %w", dbPath, err)
		}
	}

	mode := repl.ModeLine
	if boxFlag {
		mode = repl.ModeBox
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          repl.Prompt,
		HistoryFile:     historyFlag,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		if aTable != nil {
			aTable.Close(context.Background())
		}
		return err
	}
	defer rl.Close()

	aSession := repl.NewSession(
		rl.Stdout(),
		aTable,
		repl.WithLogger(logger),
		repl.WithOutputMode(mode),
		repl.WithTableOptions(tableOptions...),
	)
	// The session owns the table from here on
	defer aSession.Close(context.Background())

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	// REPL (Read-eval-print loop) start
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		} else if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}

		exit, err := aSession.Execute(ctx, line)
		if err != nil {
			if tinydb.IsFatal(err) {
				logger.Error("fatal storage error, the database file may be inconsistent", zap.Error(err))
			}
			return err
		}
		if exit {
			return nil
		}
	}

	return aSession.Close(context.Background())
}

func serveMetrics(logger *zap.Logger, reg *prometheus.Registry, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	metricsServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Sugar().With("addr", addr).Info("serving metrics")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return metricsServer
}
