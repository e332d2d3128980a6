// Package http exposes download runs over HTTP. Runs are streamed to the
// client as server-sent events.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/billfetch"
	"github.com/fwojciec/billfetch/download"
)

// DefaultMaxInvoices caps a run when the request does not.
const DefaultMaxInvoices = 10

// Server serves the download API.
type Server struct {
	service     *download.Service
	labels      map[string]string
	implemented map[string]bool
	defaultMax  int
	logger      *slog.Logger

	handler http.Handler
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLabels sets the display names of known providers, implemented or
// not.
func WithLabels(labels map[string]string) Option {
	return func(s *Server) {
		s.labels = labels
	}
}

// WithImplemented declares the provider ids that have an implementation.
// Known providers without one are answered with 501 Not Implemented.
func WithImplemented(ids ...string) Option {
	return func(s *Server) {
		for _, id := range ids {
			s.implemented[id] = true
		}
	}
}

// WithDefaultMax sets the cap applied when a request has none.
func WithDefaultMax(n int) Option {
	return func(s *Server) {
		s.defaultMax = n
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server running downloads through svc.
func NewServer(svc *download.Service, opts ...Option) *Server {
	s := &Server{
		service:     svc,
		labels:      map[string]string{},
		implemented: map[string]bool{},
		defaultMax:  DefaultMaxInvoices,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("GET /api/check-2fa", s.handleCheckSecondFactor)
	mux.HandleFunc("POST /api/submit-otp", s.handleSubmitSecondFactor)
	s.handler = s.logRequests(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "billfetch API is running"})
}

type providerInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Configured  bool   `json:"configured"`
	Implemented bool   `json:"implemented"`
}

type providersResponse struct {
	Providers []providerInfo `json:"providers"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(s.labels))
	for id := range s.labels {
		ids = append(ids, id)
	}
	for _, id := range s.service.IDs() {
		if _, ok := s.labels[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	resp := providersResponse{Providers: make([]providerInfo, 0, len(ids))}
	for _, id := range ids {
		_, err := s.service.Provider(id)
		name := s.labels[id]
		if name == "" {
			name = id
		}
		resp.Providers = append(resp.Providers, providerInfo{
			ID:          id,
			Name:        name,
			Configured:  err == nil,
			Implemented: s.implemented[id] || err == nil,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// downloadRequest is the body of POST /api/download.
type downloadRequest struct {
	Provider        string `json:"provider"`
	MaxInvoices     int    `json:"max_invoices"`
	Year            *int   `json:"year"`
	Month           *int   `json:"month"`
	Months          []int  `json:"months"`
	DateStart       string `json:"date_start"`
	DateEnd         string `json:"date_end"`
	ForceRedownload bool   `json:"force_redownload"`
}

func (r *downloadRequest) runRequest(defaultMax int, code string) (*billfetch.RunRequest, error) {
	req := &billfetch.RunRequest{
		ProviderID:       strings.ToLower(strings.TrimSpace(r.Provider)),
		Max:              r.MaxInvoices,
		Year:             r.Year,
		Month:            r.Month,
		Months:           r.Months,
		SecondFactorCode: code,
		ForceRedownload:  r.ForceRedownload,
	}
	if req.Max == 0 {
		req.Max = defaultMax
	}
	var err error
	if req.Start, err = parseDate(r.DateStart); err != nil {
		return nil, err
	}
	if req.End, err = parseDate(r.DateEnd); err != nil {
		return nil, err
	}
	return req, req.Validate()
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, billfetch.Errorf(billfetch.EINVALID, "invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}

type progressPayload struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type donePayload struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Count   int      `json:"count"`
	Files   []string `json:"files"`
}

type errorPayload struct {
	Detail      string `json:"detail"`
	Code        string `json:"code"`
	RequiresOTP bool   `json:"requires_otp"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var body downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := body.runRequest(s.defaultMax, r.URL.Query().Get("otp_code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, billfetch.ErrorMessage(err))
		return
	}
	if _, err := s.service.Provider(req.ProviderID); err != nil {
		s.writeUnavailable(w, req.ProviderID)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.Info("download started", "provider", req.ProviderID, "max", req.Max,
		"second_factor", req.SecondFactorCode != "")
	for e := range s.service.Stream(r.Context(), req) {
		if err := writeEvent(w, e); err != nil {
			s.logger.Warn("event stream interrupted", "provider", req.ProviderID, "error", err)
			continue
		}
		flusher.Flush()
	}
}

func (s *Server) writeUnavailable(w http.ResponseWriter, id string) {
	if _, known := s.labels[id]; known && !s.implemented[id] {
		writeError(w, http.StatusNotImplemented, fmt.Sprintf("provider %q is not implemented yet", id))
		return
	}
	writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("provider %q is not configured", id))
}

// writeEvent writes one server-sent event.
func writeEvent(w http.ResponseWriter, e billfetch.Event) error {
	var payload any
	switch e.Kind {
	case billfetch.EventProgress:
		payload = progressPayload{Current: e.Current, Total: e.Total, Message: e.Message}
	case billfetch.EventDone:
		files := e.Result.Files
		if files == nil {
			files = []string{}
		}
		payload = donePayload{
			Success: true,
			Message: fmt.Sprintf("%d facture(s) téléchargée(s)", e.Result.Count),
			Count:   e.Result.Count,
			Files:   files,
		}
	case billfetch.EventError:
		payload = errorPayload{Detail: e.Message, Code: e.Code, RequiresOTP: e.RequiresSecondFactor}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
	return err
}

type otpRequest struct {
	Provider string `json:"provider"`
	OTPCode  string `json:"otp_code"`
}

type otpResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RequiresOTP bool   `json:"requires_otp"`
}

func (s *Server) handleCheckSecondFactor(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r.URL.Query().Get("provider"))
	if !ok {
		return
	}
	requires := p.SecondFactorRequired(r.Context())
	msg := "no second factor code required"
	if requires {
		msg = "second factor code required"
	}
	writeJSON(w, http.StatusOK, otpResponse{Success: !requires, Message: msg, RequiresOTP: requires})
}

func (s *Server) handleSubmitSecondFactor(w http.ResponseWriter, r *http.Request) {
	var body otpRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, ok := s.provider(w, body.Provider)
	if !ok {
		return
	}

	accepted, err := p.SubmitSecondFactor(r.Context(), body.OTPCode)
	if err != nil {
		status := http.StatusInternalServerError
		if billfetch.ErrorCode(err) == billfetch.EINVALID {
			status = http.StatusBadRequest
		}
		s.logger.Error("second factor submission failed", "provider", p.ID(), "error", err)
		writeError(w, status, billfetch.ErrorMessage(err))
		return
	}
	if !accepted {
		writeJSON(w, http.StatusOK, otpResponse{Message: "code rejected or expired", RequiresOTP: true})
		return
	}
	still := p.SecondFactorRequired(r.Context())
	msg := "code accepted"
	if still {
		msg = "code accepted, a second factor is still required"
	}
	writeJSON(w, http.StatusOK, otpResponse{Success: true, Message: msg, RequiresOTP: still})
}

// provider resolves the provider named by id, defaulting to the only
// configured provider. It writes the error response itself.
func (s *Server) provider(w http.ResponseWriter, id string) (billfetch.Provider, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		ids := s.service.IDs()
		if len(ids) != 1 {
			writeError(w, http.StatusBadRequest, "provider required")
			return nil, false
		}
		id = ids[0]
	}
	p, err := s.service.Provider(id)
	if err != nil {
		s.writeUnavailable(w, id)
		return nil, false
	}
	return p, true
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func(begin time.Time) {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(begin),
			)
		}(time.Now())
		next.ServeHTTP(rec, r)
	})
}
