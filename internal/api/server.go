package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"texiv-detect/internal/domain/entity"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type DetectionsResponse struct {
	Index      int64              `json:"index"`
	At         time.Time          `json:"at"`
	Detections []entity.Detection `json:"detections"`
}

// Server HTTP API управления обработкой
type Server struct {
	commands Commands
	logger   *zap.Logger
	srv      *http.Server
}

func NewServer(addr string, commands Commands, logger *zap.Logger) *Server {
	s := &Server{commands: commands, logger: logger}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Router маршруты API
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/model", s.handleLoadModel).Methods(http.MethodPost)
	r.HandleFunc("/video", s.handleOpenVideo).Methods(http.MethodPost)
	r.HandleFunc("/play", s.handlePlay).Methods(http.MethodPost)
	r.HandleFunc("/pause", s.handlePause).Methods(http.MethodPost)
	r.HandleFunc("/frame.jpg", s.handleFrame).Methods(http.MethodGet)
	r.HandleFunc("/detections", s.handleDetections).Methods(http.MethodGet)
	return r
}

// Run слушает адрес до отмены контекста
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.commands.Status())
}

func (s *Server) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	path, ok := decodePath(w, r)
	if !ok {
		return
	}
	if err := s.commands.LoadModel(r.Context(), path); err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commands.Status())
}

func (s *Server) handleOpenVideo(w http.ResponseWriter, r *http.Request) {
	path, ok := decodePath(w, r)
	if !ok {
		return
	}
	if err := s.commands.OpenVideo(path); err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commands.Status())
}

func (s *Server) handlePlay(w http.ResponseWriter, _ *http.Request) {
	if err := s.commands.Play(); err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commands.Status())
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	if err := s.commands.Pause(); err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commands.Status())
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	frame, ok := s.commands.LatestFrame()
	if !ok || frame.Image == nil {
		sendErrorResponse(w, "no_frame", "no processed frame yet", http.StatusNotFound)
		return
	}

	data, err := encodeJPEG(frame.Image)
	if err != nil {
		s.logger.Error("encode frame", zap.Error(err))
		sendErrorResponse(w, "encode_error", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Frame-Index", strconv.FormatInt(frame.Index, 10))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write frame", zap.Error(err))
	}
}

func (s *Server) handleDetections(w http.ResponseWriter, _ *http.Request) {
	frame, ok := s.commands.LatestFrame()
	if !ok {
		sendErrorResponse(w, "no_frame", "no processed frame yet", http.StatusNotFound)
		return
	}
	dets := frame.Detections
	if dets == nil {
		dets = []entity.Detection{}
	}
	writeJSON(w, http.StatusOK, DetectionsResponse{
		Index:      frame.Index,
		At:         frame.At,
		Detections: dets,
	})
}

func (s *Server) sendError(w http.ResponseWriter, err error) {
	code, status := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("command failed", zap.Error(err))
	}
	sendErrorResponse(w, code, err.Error(), status)
}

func classifyError(err error) (string, int) {
	switch {
	case errors.Is(err, entity.ErrModelNotFound):
		return "model_not_found", http.StatusNotFound
	case errors.Is(err, entity.ErrModelNotLoaded):
		return "model_not_loaded", http.StatusConflict
	case errors.Is(err, entity.ErrNoVideo):
		return "no_video", http.StatusConflict
	case errors.Is(err, entity.ErrInvalidState), errors.Is(err, entity.ErrSessionClosed):
		return "invalid_state", http.StatusConflict
	case errors.Is(err, entity.ErrSourceOpenFailed):
		return "source_open_failed", http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrModelLoad):
		return "model_load_failed", http.StatusUnprocessableEntity
	default:
		return "internal_error", http.StatusInternalServerError
	}
}

func decodePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return "", false
	}
	if req.Path == "" {
		sendErrorResponse(w, "invalid_request", "path is required", http.StatusBadRequest)
		return "", false
	}
	return req.Path, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
