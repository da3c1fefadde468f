package webservices

import (
	"net/http"
	"os"

	"github.com/elenaivadreyer/ukr-energy-dash/energydal"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

const geoJSONContentType = "application/geo+json"

// DatasetService serves the persisted pipeline output to the visualization
// layer. It never recomputes anything; it streams whatever the last
// pipeline run wrote.
type DatasetService struct {
	logger      *logpkg.Logger
	pathsConfig *energydal.PathsConfig
	chi.Router
}

func NewDatasetService(logger *logpkg.Logger, pathsConfig *energydal.PathsConfig) *DatasetService {
	router := chi.NewRouter()
	service := &DatasetService{logger, pathsConfig, router}

	router.Get("/api/info", service.handleInfo)
	router.Get("/data/stations", service.handleStations)
	router.Get("/data/oblasts", service.handleOblasts)

	return service
}

type datasetFileInfoType struct {
	Name         string `json:"name"`
	SizeBytes    int64  `json:"sizeBytes"`
	LastModified string `json:"lastModified"`
}

type infoResponseType struct {
	Datasets []*datasetFileInfoType `json:"datasets"`
}

func (s *DatasetService) handleInfo(w http.ResponseWriter, r *http.Request) {
	datasets := []*datasetFileInfoType{}
	for _, filePath := range []string{s.pathsConfig.StationsFilePath(), s.pathsConfig.OblastsFilePath()} {
		fileInfo, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			errorsx.HTTPError(w, s.logger, errorsx.Wrap(err), http.StatusInternalServerError)
			return
		}

		datasets = append(datasets, &datasetFileInfoType{
			Name:         fileInfo.Name(),
			SizeBytes:    fileInfo.Size(),
			LastModified: fileInfo.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	render.JSON(w, r, infoResponseType{datasets})
}

func (s *DatasetService) handleStations(w http.ResponseWriter, r *http.Request) {
	s.serveDatasetFile(w, r, s.pathsConfig.StationsFilePath())
}

func (s *DatasetService) handleOblasts(w http.ResponseWriter, r *http.Request) {
	s.serveDatasetFile(w, r, s.pathsConfig.OblastsFilePath())
}

func (s *DatasetService) serveDatasetFile(w http.ResponseWriter, r *http.Request, filePath string) {
	_, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "dataset not generated yet, run the import first", http.StatusNotFound)
			return
		}
		errorsx.HTTPError(w, s.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", geoJSONContentType)
	http.ServeFile(w, r, filePath)
}
