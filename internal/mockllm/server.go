// Package mockllm serves a deterministic OpenAI-compatible chat completions API for
// local harness runs and tests.
package mockllm

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
)

// DefaultReply is returned for every prompt unless Server.SetReply overrides it.
const DefaultReply = "Investir hoje é a melhor forma de cuidar do seu amanhã."

// Call records one completion request received by the server.
type Call struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64

	Authorization string
	Referer       string
	Title         string
}

// Server implements the minimal "/chat/completions" surface.
type Server struct {
	mu    sync.Mutex
	calls []Call

	expectedAuthorization string
	failFor               []string
	reply                 func(prompt string) string
}

// New constructs a mock server answering every prompt with DefaultReply.
func New() *Server {
	return &Server{
		reply: func(string) string { return DefaultReply },
	}
}

// RequireBearerToken enforces that requests include an Authorization header matching the token.
// If token is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// FailFor makes every prompt containing one of names answer HTTP 500.
func (s *Server) FailFor(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s.failFor = append(s.failFor, n)
		}
	}
}

// SetReply replaces the completion text generator.
func (s *Server) SetReply(f func(prompt string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = f
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

type request struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	var req request
	if err := json.Unmarshal(b, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	prompt := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Model:         req.Model,
		Prompt:        prompt,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		Authorization: r.Header.Get("Authorization"),
		Referer:       r.Header.Get("HTTP-Referer"),
		Title:         r.Header.Get("X-Title"),
	})
	expected := s.expectedAuthorization
	failing := false
	for _, n := range s.failFor {
		if strings.Contains(prompt, n) {
			failing = true
			break
		}
	}
	reply := s.reply
	s.mu.Unlock()

	if expected != "" && r.Header.Get("Authorization") != expected {
		writeError(w, http.StatusUnauthorized, "No auth credentials found")
		return
	}
	if failing {
		writeError(w, http.StatusInternalServerError, "upstream provider error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response{
		ID:     "gen-mock",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []choice{{
			Message:      message{Role: "assistant", Content: reply(prompt)},
			FinishReason: "stop",
		}},
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var body errorBody
	body.Error.Message = msg
	body.Error.Code = status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
