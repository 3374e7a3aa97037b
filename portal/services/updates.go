package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"research_portal/portal/auth"
	"research_portal/portal/schema"
	"research_portal/portal/store"
	"research_portal/utils"

	"github.com/google/uuid"
)

type UpdateService struct {
	store store.Gateway
}

type recordUpdateRequest struct {
	Version     string `json:"version"`
	UpdateType  string `json:"update_type"`
	Description string `json:"description"`
}

type recordUpdateResponse struct {
	NotificationId uuid.UUID `json:"notification_id"`
}

func (s *UpdateService) Record(w http.ResponseWriter, r *http.Request) {
	datasetId, err := utils.URLParam(r, "dataset_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params recordUpdateRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.UpdateType == "" {
		http.Error(w, "update_type must be specified", http.StatusBadRequest)
		return
	}

	username, err := auth.UsernameFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	notification := schema.UpdateNotification{
		Id:          uuid.New(),
		DatasetId:   datasetId,
		Version:     params.Version,
		UpdatedBy:   username,
		UpdateType:  params.UpdateType,
		Description: params.Description,
	}

	if err := s.store.RecordUpdate(r.Context(), notification); err != nil {
		if errors.Is(err, store.ErrDatasetNotFound) {
			http.Error(w, fmt.Sprintf("no dataset found with id '%v'", datasetId), http.StatusNotFound)
			return
		}
		slog.Error("error recording update notification", "dataset_id", datasetId, "error", err)
		http.Error(w, "error recording update notification", http.StatusInternalServerError)
		return
	}

	slog.Info("recorded update notification", "dataset_id", datasetId, "update_type", params.UpdateType, "user", username)

	utils.WriteJsonResponse(w, recordUpdateResponse{NotificationId: notification.Id})
}

type listUpdatesResponse struct {
	Updates []schema.UpdateNotification `json:"updates"`
}

func (s *UpdateService) List(w http.ResponseWriter, r *http.Request) {
	datasetId, err := utils.URLParam(r, "dataset_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updates, err := s.store.ListUpdates(r.Context(), datasetId)
	if err != nil {
		slog.Error("error listing update notifications", "dataset_id", datasetId, "error", err)
		http.Error(w, "error listing update notifications", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, listUpdatesResponse{Updates: updates})
}
