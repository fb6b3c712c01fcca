package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/adapter"
	"github.com/AlenaSalanevich/financeadviser/internal/adapter/utils"
	"github.com/AlenaSalanevich/financeadviser/internal/api"
	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var logRH *logger_i.Logger

// rebuild jobs carry everything the worker needs through this struct so
// the handler wiring stays flat
type newJobData struct {
	id             string
	traceId        string
	sourceDir      string
	uploadFileName string
	uploadPath     string
}

// GetHandler godoc
// @Summary      Liveness and readiness probe
// @Description  Returns 200 once a searchable index snapshot is published, 503 before that.
// @Tags         Health
// @Success      200  "Index is serving"
// @Failure      503  "No snapshot published yet"
// @Router       /healthz [get]
func GetHandler(w http.ResponseWriter, r *http.Request) {
	if !IndexReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SearchHandler godoc
// @Summary      Retrieve chunks for a query
// @Description  Embeds the query text and returns the top-k most similar chunks from the serving index snapshot.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        request  body      api.SearchRequest   true  "Query text, optional top_k and metadata filters"
// @Success      200      {object}  api.SearchResponse  "Ranked results"
// @Failure      400      {object}  api.JobResponse     "Invalid request data"
// @Failure      503      {object}  api.JobResponse     "Index not ready"
// @Router       /search [post]
func SearchHandler(w http.ResponseWriter, request *http.Request) {

	if validateContext(request.Context()) {

		var requestData api.SearchRequest
		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logRH.Error("Couldn't close the Search handler reader :", err)
			}
		}(request.Body)
		if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.Query == "" {
			logRH.Warn("Bad Search Request: ", "error:", err, "request data:", requestData)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		query := docModel.Query{
			Text:    requestData.Query,
			K:       requestData.TopK,
			Filters: requestData.Filters,
		}
		result, err := SearchIndex(request.Context(), query)
		if err != nil {
			code, message := searchErrorStatus(err)
			logRH.Warn("Search failed", "code", code, "error", err)
			WriteErrorResponse(w, code, "", message)
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(result))
		return
	}
	logRH.Warn("Invalid Context by request ", request.RemoteAddr)
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a rebuild job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse  "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse  "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// GetBuildsHandler godoc
// @Summary      Recent build history
// @Description  Lists the most recent index build summaries, newest first.
// @Tags         Job Status
// @Produce      json
// @Success      200  {object}  api.BuildHistoryResponse  "Recent builds"
// @Failure      500  {object}  api.JobResponse           "History store failure"
// @Router       /builds [get]
func GetBuildsHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		builds, err := GetRecentBuilds(r.Context().Value(config.TRACE_ID_KEY).(string), config.BuildReportHistoryLimit)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, "", "Could not read build history")
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToBuildHistoryResponse(builds))
	}
}

// PostReindexHandler godoc
// @Summary      Trigger an index rebuild
// @Description  Queues a background job that rebuilds the index from the configured source directory and swaps it in atomically.
// @Tags         Indexing
// @Accept       json
// @Produce      json
// @Param        request  body      api.ReindexRequest   false  "Optional source directory override"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data"
// @Router       /reindex [post]
func PostReindexHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		var requestData api.ReindexRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
				logRH.Warn("Bad Reindex Request: ", "error:", err)
				WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
				return
			}
			defer r.Body.Close()
		}

		queueRebuild(r, w, requestData.SourceDir, "", "")
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// PostDocumentHandler handles uploading of source documents.
// @Summary      Upload a document and rebuild
// @Description  Receives a file via multipart/form-data, saves it to the source directory, and queues a rebuild job so the new document becomes searchable.
// @Tags         Indexing
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file  true  "The PDF, DOCX or TXT file to upload"
// @Success      202  {object}  api.InitJobResponse  "Accepted - rebuild queued"
// @Failure      400  {object}  api.JobResponse      "Bad Request - Missing fields or file too large"
// @Failure      500  {object}  api.JobResponse      "Internal Server Error - Storage or Write Error"
// @Router       /documents [post]
func PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory :", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
			return
		}

		const maxUploadSize = 32 << 20 //32mb
		err := r.ParseMultipartForm(maxUploadSize)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		fileReader, fileMetadata, err := r.FormFile("document")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMetadata.Filename))
		destinationPath := filepath.Join(targetDir, filename)
		destinationFileWriter, err := os.Create(destinationPath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, filename, "Storage error")
			return
		}
		defer destinationFileWriter.Close()

		if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, filename, "Write error")
			return
		}
		queueRebuild(r, w, targetDir, filename, destinationPath)
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

func queueRebuild(request *http.Request, w http.ResponseWriter, sourceDir string, uploadName string, uploadPath string) {
	newJob := newJobData{
		id:             utils.GetNewUUID(),
		traceId:        request.Context().Value(config.TRACE_ID_KEY).(string),
		sourceDir:      sourceDir,
		uploadFileName: uploadName,
		uploadPath:     uploadPath,
	}
	CreateNewJob(newJob)
	res := adapter.ToInitJobResponse(newJob.id)
	writeJsonResponse(w, http.StatusAccepted, res)
}
