// Command vonnegutd runs a single Vonnegut broker: one TCP listener in
// front of a set of partition workers, backed by the on-disk log engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	vlog "github.com/vonnegut/vonnegut/log"
	"github.com/vonnegut/vonnegut/server"
)

// cli mirrors the teacher's own flat, struct-tagged command definition
// style; alecthomas/kong (used elsewhere in the pack for CLI parsing)
// fills it in directly from os.Args.
var cli struct {
	ListenAddr string   `help:"Address to listen on." default:":9092"`
	LogDir     []string `help:"Base directory partitions are created under; repeatable." default:"./data"`

	SegmentBytes       int64 `help:"Per-segment log-file soft cap, bytes." default:"1048576"`
	IndexMaxBytes      int64 `help:"Per-segment index-file hard cap, bytes." default:"65536"`
	IndexIntervalBytes int64 `help:"Minimum log bytes between sparse index entries." default:"4096"`
	FlushEveryAppend   bool  `help:"fsync the active segment after every append."`

	MaxConnections int `help:"Maximum concurrent client connections, 0 = unbounded." default:"0"`

	Bootstrap []string `help:"topic:partitions to create at startup, e.g. orders:4; repeatable."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("vonnegutd"),
		kong.Description("Partitioned, append-only commit-log broker."),
	)

	logger := gokitlog.NewLogfmtLogger(gokitlog.NewSyncWriter(os.Stderr))
	logger = gokitlog.With(logger, "ts", gokitlog.DefaultTimestampUTC, "caller", gokitlog.DefaultCaller)

	if err := run(logger); err != nil {
		level.Error(logger).Log("msg", "vonnegutd exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger gokitlog.Logger) error {
	logCfg := vlog.NewConfig()
	logCfg.LogDirs = cli.LogDir
	logCfg.SegmentBytes = cli.SegmentBytes
	logCfg.IndexMaxBytes = cli.IndexMaxBytes
	logCfg.IndexIntervalBytes = cli.IndexIntervalBytes
	logCfg.FlushEveryAppend = cli.FlushEveryAppend
	if err := logCfg.Validate(); err != nil {
		return fmt.Errorf("vonnegutd: invalid log configuration: %w", err)
	}

	srvCfg := &server.Config{ListenAddr: cli.ListenAddr, MaxConnections: cli.MaxConnections}

	srv, err := server.New(srvCfg, logCfg, logger)
	if err != nil {
		return fmt.Errorf("vonnegutd: failed to build server: %w", err)
	}

	if err := bootstrapTopics(srv, cli.Bootstrap); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level.Info(logger).Log("msg", "starting vonnegutd", "addr", cli.ListenAddr, "log_dirs", strings.Join(cli.LogDir, ","))
	if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("vonnegutd: listener failed: %w", err)
	}

	level.Info(logger).Log("msg", "shutting down")
	return srv.Close()
}

// bootstrapTopics creates every configured topic's partitions concurrently
// before the listener starts accepting connections, bounding fan-out with
// a semaphore so a config naming dozens of topics doesn't open that many
// partition directories (and recover them) all at once.
func bootstrapTopics(srv *server.Server, specs []string) error {
	if len(specs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	sem := semaphore.NewWeighted(4)

	for _, spec := range specs {
		spec := spec
		topic, partitions, err := parseBootstrapSpec(spec)
		if err != nil {
			return err
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			return srv.EnsureTopic(topic, partitions)
		})
	}
	return g.Wait()
}

func parseBootstrapSpec(spec string) (string, int32, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("vonnegutd: bootstrap spec %q must be topic:partitions", spec)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("vonnegutd: bootstrap spec %q has an invalid partition count", spec)
	}
	return parts[0], int32(n), nil
}
