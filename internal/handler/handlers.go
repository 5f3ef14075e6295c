package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/grigolet/gangle/internal/game"
	"github.com/grigolet/gangle/internal/service"
	"github.com/grigolet/gangle/internal/ws"
	"go.uber.org/zap"
)

type identityBody struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
}

type guessBody struct {
	identityBody
	Guess int `json:"guess"`
}

type playersBody struct {
	Count int `json:"count"`
}

func RegisterHandlers(mux *http.ServeMux, svc service.GameService, hub *ws.Hub, adminToken string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	mux.HandleFunc("/chats/", func(w http.ResponseWriter, r *http.Request) {
		chatID, rest, err := splitChatPath(r.URL.Path)
		if err != nil {
			http.Error(w, "bad chat id", http.StatusBadRequest)
			return
		}

		switch {
		case rest == "round" && r.Method == http.MethodPost:
			startRound(w, r, svc, chatID, log)
		case rest == "round" && r.Method == http.MethodGet:
			roundStatus(w, svc, chatID, log)
		case rest == "round/image" && r.Method == http.MethodGet:
			roundImage(w, svc, chatID, log)
		case rest == "round/guesses" && r.Method == http.MethodPost:
			submitGuess(w, r, svc, chatID, log)
		case rest == "round/forfeit" && r.Method == http.MethodPost:
			forfeit(w, r, svc, chatID, log)
		case rest == "round/players" && r.Method == http.MethodPost:
			setPlayers(w, r, svc, chatID, log)
		case rest == "round/end" && r.Method == http.MethodPost:
			endRound(w, r, svc, chatID, log)
		case rest == "leaderboard" && r.Method == http.MethodGet:
			leaderboard(w, r, svc, chatID, log)
		case rest == "leaderboard/reset" && r.Method == http.MethodPost:
			requireAdminToken(adminToken, func(w http.ResponseWriter, r *http.Request) {
				resetLeaderboard(w, r, svc, chatID, log)
			})(w, r)
		default:
			log.Warn("no route", zap.String("path", r.URL.Path), zap.String("method", r.Method))
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	mux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.URL.Path, "/ws/")
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "bad chat id", http.StatusBadRequest)
			return
		}
		log.Info("ws connect attempt", zap.Int64("chat_id", chatID))
		hub.ServeWS(w, r, chatID)
	})
}

// splitChatPath turns /chats/<id>/<rest...> into its id and trailing route.
func splitChatPath(path string) (int64, string, error) {
	trimmed := strings.TrimPrefix(path, "/chats/")
	parts := strings.SplitN(trimmed, "/", 2)
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", err
	}
	rest := ""
	if len(parts) == 2 {
		rest = strings.TrimSuffix(parts[1], "/")
	}
	return chatID, rest, nil
}

func startRound(w http.ResponseWriter, r *http.Request, svc service.GameService, chatID int64, log *zap.Logger) {
	var body identityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	status, err := svc.StartRound(r.Context(), chatID, body.UserID)
	if err != nil {
		writeGameError(w, err, log)
		return
	}
	log.Info("round started", zap.Int64("chat_id", chatID), zap.Int64("starter_id", body.UserID))
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(status)
}

func roundStatus(w http.ResponseWriter, svc service.GameService, chatID int64, log *zap.Logger) {
	status, err := svc.RoundStatus(chatID)
	if err != nil {
		writeGameError(w, err, log)
		return
	}
	_ = json.NewEncoder(w).Encode(status)
}

func roundImage(w http.ResponseWriter, svc service.GameService, chatID int64, log *zap.Logger) {
	svg, err := svc.AngleImage(chatID)
	if err != nil {
		writeGameError(w, err, log)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func submitGuess(w http.ResponseWriter, r *http.Request, svc service.GameService, chatID int64, log *zap.Logger) {
	var body guessBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if err := svc.AddParticipant(ctx, chatID, body.UserID, body.Username, body.FirstName); err != nil {
		writeGameError(w, err, log)
		return
	}
	accepted, err := svc.SubmitGuess(ctx, chatID, body.UserID, body.Guess)
	if err != nil {
		writeGameError(w, err, log)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"accepted": accepted})
}

func forfeit(w http.ResponseWriter, r *http.Request, svc service.GameService, chatID int64, log *zap.Logger) {
	var body identityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if err := svc.AddParticipant(ctx, chatID, body.UserID, body.Username, body.FirstName); err != nil {
		writeGameError(w, err, log)
		return
	}
	if err := svc.Forfeit(ctx, chatID, body.UserID); err != nil {
		writeGameError(w, err, log)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func setPlayers(w http.ResponseWriter, r *http.Request, svc service.GameService, chatID int64, log *zap.Logger) {
	var body playersBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if err := svc.SetEstimatedPlayers(r.Context(), chatID, body.Count); err != nil {
		writeGameError(w, err, log)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func endRound(w http.ResponseWriter, r *http.Request, svc service.GameService, chatID int64, log *zap.Logger) {
	var body identityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	results, err := svc.ForceEnd(r.Context(), chatID, body.UserID)
	if err != nil {
		writeGameError(w, err, log)
		return
	}
	_ = json.NewEncoder(w).Encode(results)
}

func leaderboard(w http.ResponseWriter, r *http.Request, svc service.GameService, chatID int64, log *zap.Logger) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := svc.Leaderboard(r.Context(), chatID, limit)
	if err != nil {
		writeGameError(w, err, log)
		return
	}
	_ = json.NewEncoder(w).Encode(entries)
}

func resetLeaderboard(w http.ResponseWriter, r *http.Request, svc service.GameService, chatID int64, log *zap.Logger) {
	var body identityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if err := svc.ResetLeaderboard(r.Context(), chatID, body.UserID); err != nil {
		writeGameError(w, err, log)
		return
	}
	log.Info("leaderboard reset", zap.Int64("chat_id", chatID), zap.Int64("user_id", body.UserID))
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func writeGameError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, game.ErrNoActiveRound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, game.ErrAlreadyActive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrOutOfRange), errors.Is(err, game.ErrAlreadyForfeited), errors.Is(err, game.ErrUnknownParticipant):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, game.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
