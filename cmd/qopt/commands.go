package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leengari/mini-optimizer/internal/engine"
	"github.com/leengari/mini-optimizer/internal/network"
	"github.com/leengari/mini-optimizer/internal/planner"
	"github.com/leengari/mini-optimizer/internal/repl"
)

func newExplainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <statement>",
		Short: "Print every optimizer snapshot for one statement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.eng.Explain(strings.Join(args, " "))
			if err != nil {
				return err
			}
			repl.PrintResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return repl.New(a.eng, cmd.OutOrStdout()).Start()
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer JSON explain requests over TCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			if addr := a.cfg.Metrics.Addr; addr != "" {
				srv := &http.Server{
					Addr:              addr,
					Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					a.logger.Info("Serving metrics", "addr", addr)
					if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}
			g.Go(func() error {
				return network.NewServer(a.eng, a.logger).ListenAndServe(ctx, port)
			})
			return g.Wait()
		},
	}
	cmd.Flags().IntVar(&port, "port", 4444, "TCP port to listen on")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Optimize every statement in a file, one per line, in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			stmts, err := readStatements(f)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Batch.Workers
			}
			results, err := runBatch(cmd.Context(), a.eng, stmts, workers)
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "statements optimized at once")
	return cmd
}

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the loaded database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewTable(cmd.OutOrStdout(),
				tablewriter.WithRenderer(renderer.NewMarkdown()),
				tablewriter.WithHeaderAutoFormat(tw.Off),
			)
			table.Header([]string{"table", "columns", "rows"})
			for _, t := range a.eng.Catalog().Tables() {
				table.Append([]string{t.Name, strconv.Itoa(len(t.Columns)), strconv.FormatInt(t.RowCount, 10)})
			}
			return table.Render()
		},
	}
}

// readStatements returns the non-empty lines of r, skipping "--" comments.
func readStatements(r io.Reader) ([]string, error) {
	var stmts []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		stmts = append(stmts, line)
	}
	return stmts, sc.Err()
}

type batchResult struct {
	SQL   string
	Final planner.Snapshot
	Err   error
}

// runBatch explains stmts with at most workers in flight. A failing
// statement is recorded in its result and does not stop the others.
func runBatch(ctx context.Context, eng *engine.Engine, stmts []string, workers int) ([]batchResult, error) {
	results := make([]batchResult, len(stmts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, sql := range stmts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i].SQL = sql
			res, err := eng.Explain(sql)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Final = finalPlan(res.Snapshots)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// finalPlan is the last snapshot before pipeline partitioning.
func finalPlan(snaps []planner.Snapshot) planner.Snapshot {
	for i := len(snaps) - 1; i >= 0; i-- {
		if snaps[i].Stage == planner.StagePushDownProjections {
			return snaps[i]
		}
	}
	return snaps[len(snaps)-1]
}

func printBatch(w io.Writer, results []batchResult) error {
	failed := 0
	for i, r := range results {
		fmt.Fprintf(w, "-- [%d] %s\n", i+1, r.SQL)
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "Error: %v\n\n", r.Err)
			continue
		}
		fmt.Fprintln(w, r.Final.Tree.Render())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(results))
	}
	return nil
}
