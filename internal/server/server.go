package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"movietype-quiz/internal/auth"
	"movietype-quiz/internal/models"
	"movietype-quiz/internal/narrative"
	"movietype-quiz/internal/quiz"
	"movietype-quiz/internal/store"
)

const sessionCookie = "session"

type Server struct {
	quiz           *quiz.Service
	store          store.Store
	types          *narrative.TypeCatalog
	sessions       *auth.Manager
	log            *zap.Logger
	adminToken     string
	allowedOrigins []string
}

type Options struct {
	AdminToken     string
	AllowedOrigins []string
}

func New(svc *quiz.Service, st store.Store, types *narrative.TypeCatalog, sessions *auth.Manager, log *zap.Logger, opts Options) *Server {
	return &Server{
		quiz:           svc,
		store:          st,
		types:          types,
		sessions:       sessions,
		log:            log,
		adminToken:     opts.AdminToken,
		allowedOrigins: opts.AllowedOrigins,
	}
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/questions/{id:[0-9]+}", s.handleQuestion).Methods(http.MethodGet)
	api.HandleFunc("/answers", s.handleAnswer).Methods(http.MethodPost)
	api.HandleFunc("/result", s.handleResult).Methods(http.MethodGet)
	api.HandleFunc("/dimensions", s.handleDimensions).Methods(http.MethodGet)
	api.HandleFunc("/types", s.handleTypes).Methods(http.MethodGet)

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.adminOnly)
	admin.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	admin.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	admin.HandleFunc("/dimensions/{id:[0-9]+}", s.handleDeleteDimension).Methods(http.MethodDelete)

	var h http.Handler = r
	if len(s.allowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.allowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
			handlers.AllowCredentials(),
		)(h)
	}
	h = s.logRequests(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.log.Named("panic"))),
		handlers.PrintRecoveryStack(true),
	)(h)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Clear *bool  `json:"clear"`
	}
	// an empty body starts an anonymous session
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	clearPrior := payload.Clear == nil || *payload.Clear

	sess := s.readSession(r)
	entry, err := s.quiz.Start(r.Context(), &sess, payload.Email, clearPrior)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.writeSession(w, sess); err != nil {
		s.writeError(w, err)
		return
	}
	resp := map[string]interface{}{"entry": entry}
	if entry.First != nil {
		resp["next"] = questionPath(entry.First.ID, entry.Token)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "bad question id", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	sess := s.readSession(r)
	view, err := s.quiz.RequestQuestion(r.Context(), &sess, id, q.Get("email"), q.Get("t"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.writeSession(w, sess); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		QuestionID int64 `json:"questionId"`
		Value      int   `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	sess := s.readSession(r)
	step, err := s.quiz.SubmitAnswer(r.Context(), &sess, payload.QuestionID, payload.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.writeSession(w, sess); err != nil {
		s.writeError(w, err)
		return
	}
	resp := map[string]interface{}{"step": step}
	if step.Next != nil {
		resp["next"] = questionPath(step.Next.ID, step.Token)
	} else {
		resp["next"] = "/api/result"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sess := s.readSession(r)
	res, err := s.quiz.ComputeResult(r.Context(), &sess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.clearSession(w)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	dims, err := s.quiz.Dimensions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dimensions": dims})
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	dims, err := s.quiz.Dimensions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	types, err := s.types.List(r.Context(), dims, refresh)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"types": types})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	responses, err := s.store.AllResponses(r.Context())
	if err != nil {
		s.log.Error("export", zap.Error(err))
		http.Error(w, "cannot load export", http.StatusInternalServerError)
		return
	}
	dims, err := s.quiz.Dimensions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exportedAt": time.Now(),
		"dimensions": dims,
		"responses":  responses,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetResponses(r.Context()); err != nil {
		s.log.Error("reset", zap.Error(err))
		http.Error(w, "cannot reset", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleDeleteDimension(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "bad dimension id", http.StatusBadRequest)
		return
	}
	err = s.store.DeleteDimension(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "unknown dimension", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete dimension", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "cannot delete dimension", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// readSession returns the cookie session, or an empty one when the cookie is
// missing, expired or forged.
func (s *Server) readSession(r *http.Request) models.Session {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return models.Session{}
	}
	sess, err := s.sessions.ParseSession(cookie.Value)
	if err != nil {
		s.log.Debug("discarding session cookie", zap.Error(err))
		return models.Session{}
	}
	return sess
}

func (s *Server) writeSession(w http.ResponseWriter, sess models.Session) error {
	if !sess.Bound() {
		s.clearSession(w)
		return nil
	}
	token, err := s.sessions.IssueSession(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(auth.SessionTTL),
	})
	return nil
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

func questionPath(id int64, token string) string {
	p := "/api/questions/" + strconv.FormatInt(id, 10)
	if token != "" {
		p += "?t=" + token
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// Run serves h on port until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, port string, h http.Handler, log *zap.Logger) error {
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}
