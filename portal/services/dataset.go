package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"research_portal/portal/auth"
	"research_portal/portal/config"
	"research_portal/portal/schema"
	"research_portal/portal/store"
	"research_portal/utils"

	"github.com/google/uuid"
)

// multipartMemoryLimit is the in memory threshold for multipart parsing,
// larger parts spill to disk.
const multipartMemoryLimit = 32 * 1024 * 1024

type DatasetService struct {
	store store.Gateway
	cfg   config.Config
}

var titleSanitizer = regexp.MustCompile(`[^\w]+`)

// deriveDatasetId combines the sanitized title with the current timestamp at
// second granularity. Two uploads of the same title within one second collide,
// this is an accepted limitation.
func deriveDatasetId(title string, now time.Time) string {
	sanitized := strings.Trim(titleSanitizer.ReplaceAllString(title, "_"), "_")
	return fmt.Sprintf("%v_%v", sanitized, now.Format("20060102_150405"))
}

func metadataFromForm(r *http.Request) schema.DatasetMetadata {
	return schema.DatasetMetadata{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		DatasetType:     r.FormValue("dataset_type"),
		ShareLevel:      r.FormValue("share_level"),
		Version:         r.FormValue("version"),
		ParentVersion:   r.FormValue("parent_version"),
		Tags:            r.Form["tags"],
		Authors:         r.Form["authors"],
		Teams:           r.Form["teams"],
		RelatedDatasets: r.Form["related_datasets"],
	}
}

type uploadResponse struct {
	Message string `json:"message"`
	FileId  string `json:"file_id"`
}

func (s *DatasetService) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		http.Error(w, fmt.Sprintf("error parsing multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("missing 'file' form field: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !s.cfg.ExtensionAllowed(header.Filename) {
		http.Error(w, fmt.Sprintf("file extension of '%v' is not supported", header.Filename), http.StatusBadRequest)
		return
	}

	metadata := metadataFromForm(r)
	if err := metadata.Validate(); err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, schema.ErrMissingTitle) {
			code = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("invalid dataset metadata: %v", err), code)
		return
	}

	username, err := auth.UsernameFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	// Full payload is buffered before persistence, there is no streaming or
	// chunking contract for uploads.
	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading uploaded file: %v", err), http.StatusBadRequest)
		return
	}

	fileId, err := s.upload(r.Context(), content, metadata, username)
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("dataset uploaded", "file_id", fileId, "dataset_type", metadata.DatasetType, "size", len(content), "user", username)

	utils.WriteJsonResponse(w, uploadResponse{Message: "Upload successful", FileId: fileId})
}

func (s *DatasetService) upload(ctx context.Context, content []byte, metadata schema.DatasetMetadata, username string) (string, error) {
	fileId := deriveDatasetId(metadata.Title, time.Now())

	// Content is written first so that a metadata node never references a
	// missing payload. If the dataset node creation below fails the content
	// node is orphaned, there is no compensation step.
	if err := s.store.SaveFileContent(ctx, fileId, content); err != nil {
		slog.Error("error saving file content", "file_id", fileId, "error", err)
		return "", CodedError(err, http.StatusInternalServerError)
	}

	if err := s.store.CreateDataset(ctx, fileId, metadata); err != nil {
		slog.Error("error creating dataset node", "file_id", fileId, "error", err)
		return "", CodedError(err, http.StatusInternalServerError)
	}

	notification := schema.UpdateNotification{
		Id:          uuid.New(),
		DatasetId:   fileId,
		Version:     metadata.Version,
		UpdatedBy:   username,
		UpdateType:  "create",
		Description: "initial upload",
	}
	if err := s.store.RecordUpdate(ctx, notification); err != nil {
		// The upload itself succeeded, a missing create entry in the update
		// log is not worth failing the request over.
		slog.Error("error recording create notification", "file_id", fileId, "error", err)
	}

	return fileId, nil
}

func (s *DatasetService) Fetch(w http.ResponseWriter, r *http.Request) {
	fileId, err := utils.URLParam(r, "file_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	content, err := s.store.GetFileContent(r.Context(), fileId)
	if err != nil {
		if errors.Is(err, store.ErrFileNotFound) {
			http.Error(w, fmt.Sprintf("no file found with id '%v'", fileId), http.StatusNotFound)
			return
		}
		slog.Error("error fetching file content", "file_id", fileId, "error", err)
		http.Error(w, "error retrieving file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		slog.Error("error writing file response", "file_id", fileId, "error", err)
	}
}

func (s *DatasetService) Info(w http.ResponseWriter, r *http.Request) {
	datasetId, err := utils.URLParam(r, "dataset_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dataset, err := s.store.GetDataset(r.Context(), datasetId)
	if err != nil {
		if errors.Is(err, store.ErrDatasetNotFound) {
			http.Error(w, fmt.Sprintf("no dataset found with id '%v'", datasetId), http.StatusNotFound)
			return
		}
		slog.Error("error fetching dataset", "dataset_id", datasetId, "error", err)
		http.Error(w, "error retrieving dataset", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, dataset)
}

type listDatasetsResponse struct {
	Datasets []schema.Dataset `json:"datasets"`
}

func (s *DatasetService) List(w http.ResponseWriter, r *http.Request) {
	filter := store.DatasetFilter{
		DatasetType: r.URL.Query().Get("dataset_type"),
		ShareLevel:  r.URL.Query().Get("share_level"),
		Team:        r.URL.Query().Get("team"),
	}

	if filter.DatasetType != "" {
		if err := schema.CheckValidDatasetType(filter.DatasetType); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}
	if filter.ShareLevel != "" {
		if err := schema.CheckValidShareLevel(filter.ShareLevel); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	datasets, err := s.store.ListDatasets(r.Context(), filter)
	if err != nil {
		slog.Error("error listing datasets", "error", err)
		http.Error(w, "error listing datasets", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, listDatasetsResponse{Datasets: datasets})
}
