package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/elenaivadreyer/ukr-energy-dash/energydal"
	"github.com/elenaivadreyer/ukr-energy-dash/energydal/energysqldb"
	"github.com/elenaivadreyer/ukr-energy-dash/webservices"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/userextra"
	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const DEFAULT_PORT = 9000

var logger *logpkg.Logger

func main() {
	// optional .env next to the binary; flags read env vars via Envar
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to load .env file: %q\n", err.Error())
	}

	verbose := kingpin.Flag("v", "verbose logging").Bool()

	setupImport(verbose)
	setupServe(verbose)

	kingpin.Parse()
}

func newLogger(verbose bool) *logpkg.Logger {
	logLevel := logpkg.LogLevelInfo
	if verbose {
		logLevel = logpkg.LogLevelDebug
	}
	return logpkg.NewLogger(os.Stderr, logLevel)
}

func ensureDefaultPathsConfig(dataDirFlag string) (*energydal.PathsConfig, errorsx.Error) {
	dataDir := dataDirFlag
	if dataDir == "" {
		rootDir, err := userextra.ExpandUser("~/.local/share/github.com/elenaivadreyer/ukr-energy-dash/")
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		dataDir = filepath.Join(rootDir, "data")
	}

	pathsConfig := &energydal.PathsConfig{
		DataDir:  dataDir,
		TraceDir: filepath.Join(dataDir, "trace"),
	}

	err := pathsConfig.EnsurePaths()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return pathsConfig, nil
}

func setupImport(verbose *bool) {
	cmd := kingpin.Command("import", "fetch, enrich and persist the power station dataset")
	configFilePath := cmd.Flag("config", "path to a yaml pipeline config file").String()
	dataDir := cmd.Flag("data-dir", "directory to write the output datasets into").Envar("ENERGYDASH_DATA_DIR").String()
	overpassURL := cmd.Flag("overpass-url", "Overpass API endpoint").Envar("OVERPASS_URL").String()
	gppdURL := cmd.Flag("gppd-url", "Global Power Plant Database CSV URL").Envar("GPPD_DATABASE_URL").String()
	oblastsSource := cmd.Flag("oblasts-source", "path or URL of the admin-1 boundaries GeoJSON").Envar("OBLASTS_SOURCE").String()
	postgresConnString := cmd.Flag("postgres", "also import the facilities into this postgres database").Envar("ENERGYDASH_POSTGRES").String()
	shouldProfile := cmd.Flag("profile", "profile the import performance").Bool()
	shouldTrace := cmd.Flag("trace", "write a trace of the pipeline stages").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) (err error) {
		defer func() {
			errorx, ok := err.(errorsx.Error)
			if ok {
				log.Printf("%s\n%s\n", errorx.Error(), errorx.Stack())
			}
		}()

		logger = newLogger(*verbose)
		fs := gofs.NewOsFs()

		pathsConfig, err := ensureDefaultPathsConfig(*dataDir)
		if err != nil {
			return errorsx.Wrap(err)
		}

		if *shouldProfile {
			defer profile.Start(profile.ProfilePath(pathsConfig.DataDir), profile.CPUProfile).Stop()
		}

		config, err := energydal.LoadPipelineConfig(fs, *configFilePath)
		if err != nil {
			return errorsx.Wrap(err)
		}
		if *overpassURL != "" {
			config.OverpassURL = *overpassURL
		}
		if *gppdURL != "" {
			config.GPPDDatabaseURL = *gppdURL
		}
		if *oblastsSource != "" {
			config.OblastsSource = *oblastsSource
		}

		var sink energydal.FacilitySink
		if *postgresConnString != "" {
			importer, err := energysqldb.NewImporter(*postgresConnString)
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer importer.Close()
			sink = importer
		}

		var tracer *tracing.Tracer
		if *shouldTrace {
			traceFilePath := filepath.Join(pathsConfig.TraceDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
			logger.Info("tracing at %q", traceFilePath)

			traceFile, err := os.Create(traceFilePath)
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer traceFile.Close()

			tracer = tracing.NewTracer(traceFile)
		}

		startTime := time.Now()

		pipeline := energydal.NewPipeline(
			logger,
			fs,
			energydal.NewOverpassClient(logger, config.OverpassURL, config.QueryTimeout()),
			energydal.NewGPPDClient(logger, config.GPPDDatabaseURL, config.QueryTimeout()),
			config,
			pathsConfig,
			sink,
		)

		err = pipeline.Run(context.Background(), tracer)
		if err != nil {
			return errorsx.Wrap(err)
		}

		logger.Info("import finished in %s", time.Since(startTime))
		return nil
	})
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

func setupServe(verbose *bool) {
	cmd := kingpin.Command("serve", "serve the generated datasets over HTTP")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).String()
	dataDir := cmd.Flag("data-dir", "directory the datasets were written into").Envar("ENERGYDASH_DATA_DIR").String()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			logger = newLogger(*verbose)

			pathsConfig, err := ensureDefaultPathsConfig(*dataDir)
			if err != nil {
				return errorsx.Wrap(err)
			}

			router := chi.NewRouter()
			router.Use(middleware.DefaultLogger)
			router.Use(httpextra.CorsAllowAnythingMiddleware())
			router.Mount("/", webservices.NewDatasetService(logger, pathsConfig))

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			logger.Info("about to start serving on %q", *addr)

			err = errorsx.Wrap(server.ListenAndServe())
			if err != nil {
				return errorsx.Wrap(err)
			}
			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}
