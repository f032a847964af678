package http

import (
	"log/slog"
	"net/http"

	"github.com/quiz-mastro/quizmastro/internal/ai"
)

// GenerateRawHandler proxies a generation request upstream and returns the
// provider's completion response untouched. POST only; malformed bodies and
// missing fields are 400, upstream failures are a generic 500 so the API key
// and provider errors never leak to clients.
func GenerateRawHandler(client *ai.Client, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req ai.GenerateRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "missing required fields")
			return
		}
		raw, err := client.Generate(r.Context(), req)
		if err != nil {
			log.Error("ai generation failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to generate questions")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	}
}

type generateQuestionsReq struct {
	ai.GenerateRequest
	Points ai.PointsTable `json:"points"`
}

// GenerateQuestionsHandler runs the full pipeline: prompt upstream, extract
// the JSON array from the reply and build ready-to-insert questions with
// fresh identifiers and per-difficulty points.
func GenerateQuestionsHandler(client *ai.Client, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateQuestionsReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "missing required fields")
			return
		}
		raw, err := client.Generate(r.Context(), req.GenerateRequest)
		if err != nil {
			log.Error("ai generation failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to generate questions")
			return
		}
		content, err := ai.Content(raw)
		if err != nil {
			log.Error("ai response unreadable", "err", err)
			writeError(w, http.StatusBadGateway, "unexpected response from provider")
			return
		}
		items, err := ai.ExtractQuestions(content)
		if err != nil {
			log.Error("ai response had no question array", "err", err)
			writeError(w, http.StatusBadGateway, "unexpected response from provider")
			return
		}
		writeJSON(w, http.StatusOK, ai.BuildQuestions(items, req.Points))
	}
}
