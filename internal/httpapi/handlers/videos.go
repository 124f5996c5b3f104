package handlers

import (
	"net/http"

	"reelstudio/internal/httpkit"
	"reelstudio/internal/models"
	"reelstudio/internal/production"
	"reelstudio/internal/repositories"
)

// GenerateVideo queues the first render of an episode and answers 202
// before the render starts.
func (h *Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) error {
	var in production.GenerateInput
	if err := decode(r, &in); err != nil {
		return err
	}
	in.UserID = userID(r)

	video, err := h.production.Generate(r.Context(), in)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusAccepted, map[string]any{"video": video})
	return nil
}

func (h *Handler) RerenderVideo(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	video, err := h.production.Rerender(r.Context(), id, userID(r))
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusAccepted, map[string]any{"video": video})
	return nil
}

// GetVideo returns the video joined with its catalog records, project and
// review history.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	detail, err := repositories.LoadVideoDetail(r.Context(), h.store, id)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, detail)
	return nil
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	project, err := h.production.Project(r.Context(), id, userID(r))
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"project": project})
	return nil
}

type updateProjectRequest struct {
	ProjectJSON models.ProjectJSON `json:"projectJson"`
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	var req updateProjectRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	project, err := h.production.UpdateProject(r.Context(), id, userID(r), req.ProjectJSON)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"project": project})
	return nil
}
