package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/shpitdev/customer-news-enricher/internal/mockllm"
)

func main() {
	addr := defaultString("MOCK_LLM_ADDR", ":8080")
	token := defaultString("MOCK_LLM_TOKEN", "")
	failNames := defaultString("MOCK_LLM_FAIL_NAMES", "")
	reply := defaultString("MOCK_LLM_REPLY", mockllm.DefaultReply)

	fs := flag.NewFlagSet("mock-llm", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&token, "token", token, "Require this bearer token (empty disables auth)")
	fs.StringVar(&failNames, "fail-names", failNames, "Comma-separated customer names answered with HTTP 500 (env: MOCK_LLM_FAIL_NAMES)")
	fs.StringVar(&reply, "reply", reply, "Completion text returned for every prompt (env: MOCK_LLM_REPLY)")
	_ = fs.Parse(os.Args[1:])

	srv := mockllm.New()
	srv.RequireBearerToken(token)
	srv.FailFor(splitCSV(failNames)...)
	srv.SetReply(func(string) string { return reply })

	_, _ = fmt.Fprintf(os.Stdout, "mock-llm listening on %s (base url http://localhost%s)\n", addr, addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
