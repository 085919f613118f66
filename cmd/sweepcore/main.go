/*
sweepcore is a demo harness for the perception-to-decision pipeline in
this module: it wires a config file (or hardcoded defaults), a null
BrowserDriver standing in for a real browser, a file-backed trace sink,
and an in-memory metrics collector into a single agent.Core, then ticks
it on an interval while serving a small dashboard over websocket.

There is no real BrowserDriver in this module (see driver.Null's doc
comment) so this binary is a wiring demonstration, not a deployable
player. A real driver satisfying driver.BrowserDriver drops in without
changing anything below main's wiring.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"sweepcore/agent"
	"sweepcore/config"
	"sweepcore/driver"
	"sweepcore/observability"
	"sweepcore/tracesink"
)

var (
	dbg        *bool
	configPath *string
	traceDir   *string
	host       *string
	port       *string
	tickMillis *int
	viewW      *int
	viewH      *int
	addr       string
)

// TODO: these belong in config.yaml alongside everything else under
// config.Config; kept as flags for now so the binary is runnable with
// zero setup.
func init() {
	dbg = flag.Bool("debug", false, "verbose startup logging")
	configPath = flag.String("config", "", "path to a sweepcore.yaml config file; empty uses built-in defaults")
	traceDir = flag.String("tracedir", "", "directory for session trace files; empty disables persistence")
	host = flag.String("host", "", "the host ip")
	port = flag.String("port", "8080", "the host port")
	tickMillis = flag.Int("tickms", 500, "milliseconds between ticks")
	viewW = flag.Int("vieww", 20, "viewport width in grid cells")
	viewH = flag.Int("viewh", 15, "viewport height in grid cells")
	flag.Parse()
	addr = *host + ":" + *port
}

func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	return config.Load(*configPath)
}

func newTraceSink() (tracesink.TraceSink, error) {
	if *traceDir == "" {
		return tracesink.Noop{}, nil
	}
	return tracesink.NewFileSink(*traceDir)
}

// syntheticScreenshot stands in for a browser capture: a uniform mid-gray
// image, low enough variance that the color/variance tiers classify every
// patch Empty, which is enough to exercise the pipeline end to end without
// a real board to look at.
func syntheticScreenshot(cellsW, cellsH, cellPx int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, cellsW*cellPx, cellsH*cellPx))
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.Set(x, y, color.Gray{Y: 190})
		}
	}
	return img
}

func runApp() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	trace, err := newTraceSink()
	if err != nil {
		return fmt.Errorf("opening trace sink: %w", err)
	}
	defer trace.Close()

	collector := observability.NewCollector(observability.DefaultThresholds())
	collector.RegisterAlertCallback(func(a observability.Alert) {
		log.Printf("alert: %s layer=%s value=%.3f", a.Kind, a.Layer, a.Value)
	})

	const cellPx = 32
	screenshot := syntheticScreenshot(*viewW, *viewH, cellPx)
	drv := driver.NewNull(0, 0, *viewW, *viewH, screenshot)

	core := agent.New(cfg, nil, agent.Deps{Driver: drv, Trace: trace, Obs: collector})

	if *dbg {
		bounds := core.Grid().Bounds()
		log.Printf("sweepcore starting: viewport=%dx%d grid_bounds=%v tick=%dms",
			*viewW, *viewH, bounds, *tickMillis)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	router := newRouter(core, collector)
	httpServer := &http.Server{Addr: addr, Handler: router}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return core.Run(groupCtx, time.Duration(*tickMillis)*time.Millisecond)
	})
	group.Go(func() error {
		return collector.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	return group.Wait()
}

func newRouter(core *agent.Core, collector *observability.Collector) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/ws", observability.NewDashboard(collector))
	router.HandleFunc("/healthz", healthHandler)
	router.HandleFunc("/", statusHandler(core))
	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// statusHandler prints the grid's current coverage, just enough to watch
// the board fill in without a real frontend.
func statusHandler(core *agent.Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := core.Grid().Stats()
		bounds := core.Grid().Bounds()
		fmt.Fprintf(w, "bounds: [%d,%d]-[%d,%d]\nrevealed: %d\nunrevealed: %d\nfrontier: %d\ntotal: %d\n",
			bounds.XMin, bounds.YMin, bounds.XMax, bounds.YMax,
			stats.Revealed, stats.Unrevealed, stats.Frontier, stats.Total)
	}
}

func main() {
	if err := runApp(); err != nil {
		log.Fatal(err)
	}
}
