package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpoll/veilpoll/crypto/ecc/curves"
	"github.com/veilpoll/veilpoll/crypto/homomorphic"
	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/service"
	"github.com/veilpoll/veilpoll/storage"
	"github.com/veilpoll/veilpoll/tally"
)

func main() {
	host := flag.String("host", "0.0.0.0", "address to bind the API server to")
	port := flag.Int("port", 8080, "port to bind the API server to")
	dataDir := flag.String("datadir", defaultDataDir(), "directory where the poll database is stored")
	logLevel := flag.String("loglevel", "info", "log level (debug, info, warn, error)")
	curve := flag.String("curve", curves.CurveTypeBabyJubJub,
		"encryption curve, one of: "+strings.Join(curves.Curves(), ", "))
	resultsInterval := flag.Duration("results-interval", 10*time.Second,
		"how often the results worker scans for polls ready to finalize")

	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	if !slices.Contains(curves.Curves(), *curve) {
		log.Fatalf("unsupported curve type %q, must be one of: %s", *curve, strings.Join(curves.Curves(), ", "))
	}

	database, err := metadb.New(db.TypePebble, *dataDir)
	if err != nil {
		log.Fatal(err)
	}
	store := storage.New(database)

	sim, err := homomorphic.NewSimulator(database, *curve)
	if err != nil {
		log.Fatal(err)
	}
	engine := tally.New(store, sim)

	ctx := context.Background()

	apiService := service.NewAPI(engine, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatal(err)
	}

	worker := service.NewResultsWorker(engine, sim, *resultsInterval)
	if err := worker.Start(ctx); err != nil {
		log.Fatal(err)
	}

	log.Infow("veilpoll daemon ready",
		"host", *host,
		"port", *port,
		"dataDir", *dataDir,
		"curve", *curve,
		"oracle", sim.OracleAddress().Hex())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	worker.Stop()
	apiService.Stop()
	store.Close()
}

// defaultDataDir returns the database location used when no -datadir flag is
// given. It falls back to a temporary directory when the user home cannot be
// resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "veilpoll")
	}
	return filepath.Join(home, ".veilpoll")
}
