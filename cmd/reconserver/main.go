// Command reconserver runs the HTTP front end for the iterative image
// reconstruction pipeline: it loads the forward-model registry, wires the
// admission queue, memory-weighted scheduler and dispatcher, and serves
// POST /reconstruct, GET /status and GET /health over Fiber.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TKach1/image-reconstruction-go/internal/dispatcher"
	"github.com/TKach1/image-reconstruction-go/internal/httpapi"
	"github.com/TKach1/image-reconstruction-go/internal/imagesink"
	"github.com/TKach1/image-reconstruction-go/internal/logging"
	"github.com/TKach1/image-reconstruction-go/internal/modelstore"
	"github.com/TKach1/image-reconstruction-go/internal/orchestrator"
	"github.com/TKach1/image-reconstruction-go/internal/queue"
	"github.com/TKach1/image-reconstruction-go/internal/reportlog"
	"github.com/TKach1/image-reconstruction-go/internal/scheduler"
	"github.com/TKach1/image-reconstruction-go/internal/statusprobe"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:3000", "listen address")
	modelDir := flag.String("model-dir", "./models", "directory holding H-{model_id}.csv forward-model files")
	outDir := flag.String("outdir", ".", "directory to write reconstructed PNGs")
	reportPath := flag.String("report", "./reconstruction_report.csv", "path to the append-only CSV report log")
	queueCapacity := flag.Int("queue-capacity", 10, "maximum number of jobs waiting in the admission queue for the dispatcher")
	totalMemoryMB := flag.Int("total-memory-mb", 0, "override total RAM budget for the scheduler (0 = query the host)")
	maxBodyMB := flag.Int("max-body-mb", 8, "maximum accepted request body size, in MiB")
	readTimeout := flag.Duration("read-timeout", 15*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	flag.Parse()

	logging.Init("RECON_LOG_LEVEL")

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *outDir).Msg("failed to create output directory")
	}

	ramBudget := *totalMemoryMB
	if ramBudget <= 0 {
		queried, err := statusprobe.TotalMemoryMB()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to query host memory")
		}
		ramBudget = int(queried)
	}

	store := modelstore.New(*modelDir, modelstore.DefaultRegistry)
	sched := scheduler.New(ramBudget)
	sink := imagesink.New(*outDir)
	report := reportlog.New(*reportPath)
	q := queue.New(*queueCapacity)

	d := dispatcher.New(q, store, sched, sink, report)
	go d.Run()

	orch := orchestrator.New(q, store)
	probe := statusprobe.New()
	srv := httpapi.New(orch, probe)
	app := srv.App(httpapi.Config{
		ReadTimeout:  *readTimeout,
		WriteTimeout: *writeTimeout,
		MaxBodyBytes: *maxBodyMB << 20,
	})

	log.Info().
		Str("addr", *addr).
		Int("queue_capacity", *queueCapacity).
		Int("scheduler_units", sched.Capacity()).
		Int("total_memory_mb", ramBudget).
		Msg("reconserver starting")

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}()

	if err := app.Listen(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}
