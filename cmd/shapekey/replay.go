package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shapekey/internal/dispatch"
	"shapekey/internal/fingerprint"
	"shapekey/internal/hostval"
	"shapekey/internal/ndarray"
	"shapekey/internal/observ"
	"shapekey/internal/testkit"
	"shapekey/internal/trace"
	"shapekey/internal/typecode"
	"shapekey/internal/typeinfer"
	"shapekey/internal/types"
	"shapekey/internal/ui"
)

var (
	replayWorkers  int
	replayRounds   int
	replayCheck    bool
	replayFormat   string
	replayShortcut bool
	replayTimings  bool
	replayUI       string
)

func init() {
	replayCmd.Flags().IntVar(&replayWorkers, "workers", runtime.GOMAXPROCS(0), "number of concurrent dispatch workers")
	replayCmd.Flags().IntVar(&replayRounds, "rounds", 1, "times each worker replays the whole workload")
	replayCmd.Flags().BoolVar(&replayCheck, "check", false, "verify fingerprint and table/cache invariants after the run")
	replayCmd.Flags().StringVar(&replayFormat, "format", "pretty", "output format (pretty|json)")
	replayCmd.Flags().BoolVar(&replayShortcut, "scalar-shortcut", false, "answer primitive array scalars from the basic table (overrides config)")
	replayCmd.Flags().BoolVar(&replayTimings, "timings", false, "show timing information")
	replayCmd.Flags().StringVar(&replayUI, "ui", "auto", "show live progress (auto|on|off)")
}

var replayCmd = &cobra.Command{
	Use:   "replay <workload>",
	Short: "Dispatch every value of a workload and report typecodes and cache activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

// replayResult is the outcome for one workload item across all workers.
type replayResult struct {
	mu    sync.Mutex
	set   bool
	code  typecode.Code
	err   error
	calls uint64
	spent time.Duration
}

func (r *replayResult) record(code typecode.Code, err error, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.spent += d
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return nil
	}
	if r.set && r.code != code {
		return fmt.Errorf("typecode changed from %d to %d", r.code, code)
	}
	r.set, r.code = true, code
	return nil
}

func runReplay(cmd *cobra.Command, args []string) (err error) {
	if _, err := applyColor(cmd); err != nil {
		return err
	}
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	format := strings.ToLower(replayFormat)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", replayFormat)
	}
	if replayWorkers < 1 || replayRounds < 1 {
		return errors.New("--workers and --rounds must be positive")
	}

	cleanupTrace, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { cleanupTrace(err) }()
	cleanupProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanupProf()

	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	timer := observ.NewTimer()

	idx := timer.Begin("load")
	w, err := hostval.LoadWorkload(args[0])
	if err != nil {
		return err
	}
	items, err := w.Build(hostval.NewBuilder())
	if err != nil {
		return err
	}
	timer.End(idx, fmt.Sprintf("%d values", len(items)))

	idx = timer.Begin("init")
	resolver := typeinfer.New()
	basic, err := resolver.Basic()
	if err != nil {
		return err
	}
	shortcut := cfg.Dispatch.ScalarShortcut
	if cmd.Flags().Changed("scalar-shortcut") {
		shortcut = replayShortcut
	}
	if err := dispatch.Init(basic, dispatch.Options{
		Limit:          cfg.Cache.MaxFingerprintBytes,
		ScalarShortcut: shortcut,
		Tracer:         tracer,
	}); err != nil {
		return err
	}
	timer.End(idx, "")

	results := make([]replayResult, len(items))
	run := func(events chan<- ui.Event) error {
		span := trace.Begin(tracer, trace.ScopeDispatch, "replay", 0)
		err := replayWorkload(ctx, items, results, resolver, timer, events)
		span.WithExtra("workers", strconv.Itoa(replayWorkers)).End("")
		return err
	}
	useUI, err := shouldUseUI(replayUI, format)
	if err != nil {
		return err
	}
	if useUI {
		err = runReplayWithUI(ctx, args[0], items, run)
	} else {
		err = run(nil)
	}
	if err != nil {
		return err
	}

	d := dispatch.Default()
	if replayCheck {
		idx = timer.Begin("check")
		if err := checkInvariants(d, items, resolver); err != nil {
			return fmt.Errorf("invariant check failed: %w", err)
		}
		timer.End(idx, "ok")
	}

	report := buildReport(items, results, d, resolver, timer)
	if format == "json" {
		out := json.NewEncoder(cmd.OutOrStdout())
		out.SetIndent("", "  ")
		return out.Encode(report)
	}
	renderReport(cmd.OutOrStdout(), report, replayTimings, timer)
	return nil
}

// replayWorkload runs replayWorkers goroutines, each dispatching every item
// Repeat times per round, starting at a different offset. When events is
// non-nil a progress event is sent after each item batch.
func replayWorkload(ctx context.Context, items []hostval.Item, results []replayResult, r typecode.Resolver, timer *observ.Timer, events chan<- ui.Event) error {
	g, gctx := errgroup.WithContext(ctx)
	for worker := range replayWorkers {
		g.Go(func() error {
			var ops uint64
			var spent time.Duration
			defer func() { timer.Add("dispatch", spent, ops) }()
			for range replayRounds {
				for off := range items {
					if err := gctx.Err(); err != nil {
						return err
					}
					i := (off + worker) % len(items)
					var code typecode.Code
					var lastErr error
					for range items[i].Repeat {
						start := time.Now()
						c, err := dispatch.TypeofCode(items[i].Value, r)
						d := time.Since(start)
						spent += d
						ops++
						if rerr := results[i].record(c, err, d); rerr != nil {
							return fmt.Errorf("%s: %w", items[i].Name, rerr)
						}
						code, lastErr = c, err
					}
					if events == nil {
						continue
					}
					ev := ui.Event{Index: i, Done: uint64(items[i].Repeat), Code: int32(code)}
					if lastErr != nil {
						ev.Err = lastErr.Error()
					}
					select {
					case events <- ev:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func checkInvariants(d *dispatch.Dispatcher, items []hostval.Item, r typecode.Resolver) error {
	for _, it := range items {
		if _, err := testkit.CheckFingerprint(nil, it.Value); err != nil && !errors.Is(err, fingerprint.ErrUnsupported) {
			return fmt.Errorf("%s: %w", it.Name, err)
		}
		if a, ok := it.Value.(*ndarray.Array); ok {
			if err := testkit.CheckAgreement(d.Table(), d.Cache(), a); err != nil {
				return fmt.Errorf("%s: %w", it.Name, err)
			}
			continue
		}
		if _, err := testkit.CheckStable(d.Cache(), it.Value, r); err != nil && !errors.Is(err, typeinfer.ErrUntypable) {
			return fmt.Errorf("%s: %w", it.Name, err)
		}
	}
	return nil
}

type itemReport struct {
	Name  string `json:"name"`
	Code  int32  `json:"code"`
	Type  string `json:"type,omitempty"`
	Calls uint64 `json:"calls"`
	NsOp  int64  `json:"ns_per_op"`
	Error string `json:"error,omitempty"`
}

type replayReport struct {
	Items    []itemReport    `json:"items"`
	Dispatch dispatch.Stats  `json:"dispatch"`
	Resolver typeinfer.Stats `json:"resolver"`
	Timings  observ.Report   `json:"timings"`
}

func buildReport(items []hostval.Item, results []replayResult, d *dispatch.Dispatcher, r *typeinfer.Resolver, timer *observ.Timer) replayReport {
	rep := replayReport{
		Items:    make([]itemReport, len(items)),
		Dispatch: d.Stats(),
		Resolver: r.Stats(),
		Timings:  timer.Report(),
	}
	for i := range items {
		res := &results[i]
		ir := itemReport{Name: items[i].Name, Code: int32(typecode.Unresolved), Calls: res.calls}
		if res.calls > 0 {
			ir.NsOp = res.spent.Nanoseconds() / int64(res.calls)
		}
		if res.set {
			ir.Code = int32(res.code)
			ir.Type = r.Interner().String(types.TypeID(res.code))
		}
		if res.err != nil {
			ir.Error = res.err.Error()
		}
		rep.Items[i] = ir
	}
	return rep
}

func renderReport(out io.Writer, rep replayReport, timings bool, timer *observ.Timer) {
	head := color.New(color.FgCyan, color.Bold)

	rows := [][]string{{"value", "code", "type", "calls", "ns/op"}}
	for _, it := range rep.Items {
		typ := it.Type
		if it.Error != "" {
			typ = "error: " + it.Error
		}
		rows = append(rows, []string{
			it.Name, strconv.Itoa(int(it.Code)), typ,
			strconv.FormatUint(it.Calls, 10), strconv.FormatInt(it.NsOp, 10),
		})
	}
	writeTable(out, head, rows)

	fmt.Fprintln(out)
	c, t, r := rep.Dispatch.Cache, rep.Dispatch.Table, rep.Resolver
	writeTable(out, head, [][]string{
		{"component", "hits", "misses", "other", "size"},
		{"cache", u(c.Hits), u(c.Misses), "uncached " + u(c.Uncached), strconv.Itoa(c.Entries) + " entries"},
		{"table", u(t.Hits), u(t.Fills), "delegated " + u(t.Delegated), strconv.Itoa(t.Filled) + " cells"},
		{"resolver", "-", u(r.Calls), "released " + u(r.Released), strconv.Itoa(r.Types) + " types"},
	})
	if timings {
		fmt.Fprintln(out)
		fmt.Fprint(out, timer.Summary())
	}
}

func u(n uint64) string { return strconv.FormatUint(n, 10) }

// writeTable prints rows with columns padded to their display width. The
// first row is the header.
func writeTable(out io.Writer, head *color.Color, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for n, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(row)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		line := b.String()
		if n == 0 {
			line = head.Sprint(line)
		}
		fmt.Fprintln(out, line)
	}
}
