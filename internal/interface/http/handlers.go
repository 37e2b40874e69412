package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/application/command"
	"github.com/blackreaper-app/blackreaper-engine/internal/application/query"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/achievement"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG PROVIDER
// ══════════════════════════════════════════════════════════════════════════════

// CatalogProvider exposes reference-data listings. Either catalog may be nil
// when its load failed at startup; the corresponding endpoints then report
// the feature as unavailable while everything else keeps working.
type CatalogProvider interface {
	Achievements() *achievement.Catalog
	Opponents() *battle.Catalog
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain errors onto HTTP status codes. Contention and
// an already-active battle are conflicts the client may retry; catalog
// unavailability is a temporary service condition, not a client fault.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsContention(err):
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusConflict, "ledger_contention", "The operation lost a concurrent update race, retry")
	case errors.Is(err, shared.ErrBattleAlreadyActive):
		writeJSONError(w, http.StatusConflict, "battle_already_active", "A battle is already in progress for this user")
	case shared.IsCatalogUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, "catalog_unavailable", "Reference data failed to load, feature temporarily disabled")
	case errors.Is(err, shared.ErrInvalidMetric):
		writeJSONError(w, http.StatusBadRequest, "invalid_metric", "Unrecognized counter metric")
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "The operation failed")
	}
}

// decodeBody decodes a JSON request body into dst. An empty body leaves dst
// at its zero value, which suits endpoints with all-optional fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "blackreaper-engine",
		"status":  "ok",
		"uptime":  s.Uptime().String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness equals health here: the engine serves as soon as its
	// stores respond.
	s.handleHealth(w, r)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TaskID string `json:"task_id"`
		Title  string `json:"title"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.CompleteTask.Handle(r.Context(), command.CompleteTaskCommand{
		UserID: r.PathValue("id"),
		TaskID: body.TaskID,
		Title:  body.Title,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFinishPomodoro(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
		Kind      string `json:"kind"`
		Minutes   int64  `json:"minutes"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.FinishPomodoro.Handle(r.Context(), command.FinishPomodoroCommand{
		UserID:    r.PathValue("id"),
		SessionID: body.SessionID,
		Kind:      command.SessionKind(body.Kind),
		Minutes:   body.Minutes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecordJournal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EntryID string `json:"entry_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.RecordJournal.Handle(r.Context(), command.RecordJournalEntryCommand{
		UserID:  r.PathValue("id"),
		EntryID: body.EntryID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecordLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		At time.Time `json:"at"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.RecordLogin.Handle(r.Context(), command.RecordLoginCommand{
		UserID: r.PathValue("id"),
		At:     body.At,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFightBattle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OpponentID string `json:"opponent_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.FightBattle.Handle(r.Context(), command.FightBattleCommand{
		UserID:     r.PathValue("id"),
		OpponentID: body.OpponentID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetBattleHistory(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetBattleHistory.Handle(r.Context(), query.GetBattleHistoryQuery{
		UserID: r.PathValue("id"),
		Limit:  getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetActivityFeed(w http.ResponseWriter, r *http.Request) {
	q := query.GetActivityFeedQuery{
		UserID: r.PathValue("id"),
		Limit:  getQueryParamInt(r, "limit", 0),
	}
	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_since", "since must be RFC3339")
			return
		}
		q.Since = t
	}

	result, err := s.deps.GetActivityFeed.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		Limit:  int64(getQueryParamInt(r, "limit", 0)),
		UserID: r.URL.Query().Get("user_id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListAchievements(w http.ResponseWriter, _ *http.Request) {
	catalog := s.deps.Catalogs.Achievements()
	if catalog == nil {
		writeDomainError(w, shared.ErrAchievementCatalogUnavailable)
		return
	}

	type achievementDTO struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		Category    string `json:"category"`
		Metric      string `json:"metric"`
		Threshold   int64  `json:"threshold"`
		RewardRC    int64  `json:"reward_rc"`
		RewardXP    int64  `json:"reward_xp"`
	}

	defs := catalog.All()
	list := make([]achievementDTO, 0, len(defs))
	for _, def := range defs {
		list = append(list, achievementDTO{
			ID:          def.ID.String(),
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Category:    def.Category,
			Metric:      def.Metric.String(),
			Threshold:   def.Threshold,
			RewardRC:    def.RewardRC,
			RewardXP:    def.RewardXP,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListOpponents(w http.ResponseWriter, _ *http.Request) {
	catalog := s.deps.Catalogs.Opponents()
	if catalog == nil {
		writeDomainError(w, shared.ErrOpponentCatalogUnavailable)
		return
	}

	type opponentDTO struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Rank  string `json:"rank"`
		Power int64  `json:"power"`
		Speed int64  `json:"speed"`
		RCMin int64  `json:"rc_min"`
		RCMax int64  `json:"rc_max"`
	}

	defs := catalog.All()
	list := make([]opponentDTO, 0, len(defs))
	for _, def := range defs {
		list = append(list, opponentDTO{
			ID:    def.ID.String(),
			Name:  def.Name,
			Rank:  def.Rank.String(),
			Power: def.Power,
			Speed: def.Speed,
			RCMin: def.RCMin,
			RCMax: def.RCMax,
		})
	}
	writeJSON(w, http.StatusOK, list)
}
