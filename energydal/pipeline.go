package energydal

import (
	"context"

	"github.com/elenaivadreyer/ukr-energy-dash/energy"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
)

// FacilitySink receives the enriched facility set after the pipeline has
// finished, in addition to the GeoJSON files. Implemented by the postgres
// importer.
type FacilitySink interface {
	ImportFacilities(features []*energy.Feature) errorsx.Error
}

// Pipeline runs the batch end to end: fetch -> build geometries -> filter ->
// assign oblasts -> match reference database -> persist. Strictly
// sequential; a transport failure at any stage aborts the run before any
// output is written.
type Pipeline struct {
	logger      *logpkg.Logger
	fs          gofs.Fs
	overpass    *OverpassClient
	gppd        *GPPDClient
	config      PipelineConfig
	pathsConfig *PathsConfig
	sink        FacilitySink // optional
}

func NewPipeline(
	logger *logpkg.Logger,
	fs gofs.Fs,
	overpass *OverpassClient,
	gppd *GPPDClient,
	config PipelineConfig,
	pathsConfig *PathsConfig,
	sink FacilitySink,
) *Pipeline {
	return &Pipeline{logger, fs, overpass, gppd, config, pathsConfig, sink}
}

// Run executes the pipeline. When a tracer is provided, each stage is
// recorded as a span on one trace.
func (p *Pipeline) Run(ctx context.Context, tracer *tracing.Tracer) errorsx.Error {
	var trace *tracing.Trace
	if tracer != nil {
		trace = tracing.StartTrace(tracer, "pipeline run")
		ctx = context.WithValue(ctx, tracing.TraceCtxKey, trace)
		ctx = context.WithValue(ctx, tracing.TracerCtxKey, tracer)
		defer func() {
			err := tracer.EndTrace(trace, "")
			if err != nil {
				p.logger.Warn("could not end trace. Error: %q", err)
			}
		}()
	}

	endSpan := func(name string) func() {
		if tracer == nil {
			return func() {}
		}
		span := tracing.StartSpan(ctx, name)
		return func() {
			span.End(ctx)
		}
	}

	end := endSpan("fetch overpass elements")
	p.logger.Info("downloading bulk OSM power stations (skeleton)")
	graph, err := p.overpass.QueryBulkPowerStations(ctx, p.config.CountryISOCode)
	if err != nil {
		return errorsx.Wrap(err)
	}

	if len(p.config.CriticalRelationIDs) != 0 {
		p.logger.Info("downloading %d critical relations with full geometry", len(p.config.CriticalRelationIDs))
		criticalGraph, err := p.overpass.QueryRelationsFull(ctx, p.config.CriticalRelationIDs)
		if err != nil {
			return errorsx.Wrap(err)
		}
		graph.Merge(criticalGraph)
	}
	end()

	end = endSpan("build geometries")
	features := energy.BuildFeatures(p.logger, graph)
	p.logger.Info("total features after conversion: %d", len(features))
	end()

	end = endSpan("filter facilities")
	facilities := energy.FilterFacilities(features)
	p.logger.Info("total features after filtering: %d", len(facilities))
	end()

	end = endSpan("assign oblasts")
	oblasts, err := LoadOblasts(ctx, p.logger, p.fs, p.config.OblastsSource, p.config.OblastNameSwaps)
	if err != nil {
		return errorsx.Wrap(err)
	}
	energy.AssignOblasts(p.logger, facilities, oblasts, p.config.SpatialWorkers)
	end()

	end = endSpan("match reference database")
	referencePoints, err := p.gppd.FetchCountryPoints(ctx, p.config.CountryLongName)
	if err != nil {
		return errorsx.Wrap(err)
	}
	energy.FlagGPPDOverlap(p.logger, facilities, referencePoints, p.config.BufferRadiusMeters, p.config.SpatialWorkers)
	end()

	end = endSpan("persist datasets")
	err = WriteStationsGeoJSON(p.fs, p.pathsConfig.StationsFilePath(), facilities)
	if err != nil {
		return errorsx.Wrap(err)
	}
	err = WriteOblastsGeoJSON(p.fs, p.pathsConfig.OblastsFilePath(), oblasts)
	if err != nil {
		return errorsx.Wrap(err)
	}
	p.logger.Info("saved stations to %s", p.pathsConfig.StationsFilePath())
	p.logger.Info("saved oblasts to %s", p.pathsConfig.OblastsFilePath())

	if p.sink != nil {
		err = p.sink.ImportFacilities(facilities)
		if err != nil {
			return errorsx.Wrap(err)
		}
	}
	end()

	return nil
}
