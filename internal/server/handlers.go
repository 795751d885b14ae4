package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/history"
	"github.com/theirongolddev/telwatch/internal/output"
	"github.com/theirongolddev/telwatch/internal/telecom"
)

const maxCallsLimit = 500

// OKResponse is returned by endpoints with no payload
type OKResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DialRequest is the body of POST /api/v1/call/dial
type DialRequest struct {
	Number string `json:"number"`
}

// CallsResponse is the body of GET /api/v1/calls
type CallsResponse struct {
	Calls []history.Call `json:"calls"`
}

// RegisterRoutes mounts the API on mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	route(mux, http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
	})
	route(mux, http.MethodGet, "/api/v1/status", s.getStatus)
	route(mux, http.MethodGet, "/api/v1/calls", s.listCalls)
	route(mux, http.MethodPost, "/api/v1/call/dial", s.dial)
	route(mux, http.MethodPost, "/api/v1/call/answer", s.answer)
	route(mux, http.MethodPost, "/api/v1/call/hangup", s.hangUp)
}

// route registers h for method and a JSON 405 for every other method.
func route(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	mux.HandleFunc(method+" "+path, h)
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", method)
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed on "+path)
	})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st, at := s.status.Latest()
	view := output.StatusView{CallStatus: st, UpdatedAt: at.UTC()}
	if st.CallerID != "" {
		view.CallerFormatted = telecom.FormatCaller(st.CallerID, s.region)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) listCalls(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxCallsLimit)
	}

	resp := CallsResponse{Calls: []history.Call{}}
	if s.calls != nil {
		calls, err := s.calls.Recent(r.Context(), limit)
		if err != nil {
			s.logger.Error("listing calls failed", zap.Error(err))
			writeErr(w, http.StatusInternalServerError, "history_failed", err.Error())
			return
		}
		resp.Calls = calls
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dial(w http.ResponseWriter, r *http.Request) {
	var req DialRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 4<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}
	req.Number = strings.TrimSpace(req.Number)
	if !telecom.ValidDialString(req.Number) {
		writeErr(w, http.StatusBadRequest, "invalid_number", "number must contain digits and only + * # ( ) - or spaces")
		return
	}

	if err := s.ctrl.Dial(r.Context(), req.Number); err != nil {
		s.deviceErr(w, "dial", err)
		return
	}
	s.logger.Info("dialed", zap.String("number", req.Number))
	writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Answer(r.Context()); err != nil {
		s.deviceErr(w, "answer", err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (s *Server) hangUp(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.HangUp(r.Context()); err != nil {
		s.deviceErr(w, "hangup", err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (s *Server) deviceErr(w http.ResponseWriter, action string, err error) {
	s.logger.Warn("device command failed", zap.String("action", action), zap.Error(err))
	code := "device_error"
	if cliErr := output.ToCLIError(err); cliErr.Code != "" {
		code = strings.ToLower(cliErr.Code)
	}
	writeErr(w, http.StatusBadGateway, code, err.Error())
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

