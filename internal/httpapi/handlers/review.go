package handlers

import (
	"net/http"

	"reelstudio/internal/httpkit"
	"reelstudio/internal/review"
)

func (h *Handler) StartReview(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	video, err := h.review.StartReview(r.Context(), id, userID(r))
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"video": video})
	return nil
}

func (h *Handler) ApproveVideo(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	var in review.ApproveInput
	if err := decodeOptional(r, &in); err != nil {
		return err
	}

	video, err := h.review.Approve(r.Context(), id, userID(r), in)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"video": video})
	return nil
}

func (h *Handler) RejectVideo(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	var in review.RejectInput
	if err := decode(r, &in); err != nil {
		return err
	}

	video, err := h.review.Reject(r.Context(), id, userID(r), in)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"video": video})
	return nil
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) error {
	id, err := videoID(r)
	if err != nil {
		return err
	}

	logs, err := h.review.History(r.Context(), id)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"reviews": logs})
	return nil
}
