// Shadow-compares the Go API against the legacy review platform during the
// migration: replays a list of read-only endpoints against both bases and
// reports status/body drift. Volatile envelope fields (request ids,
// timestamps) are stripped before comparing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

var defaultEndpoints = []endpoint{
	{Method: http.MethodGet, Path: "/health", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/programs", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/programs/masters-degrees", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/tags", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/courses", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/feed?page=1&page_size=5", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/feed?sort=top_rated", Critical: false},
}

// Envelope fields that legitimately differ between the two stacks.
var volatileKeys = map[string]bool{
	"request_id": true,
	"timestamp":  true,
	"created_at": true,
	"updated_at": true,
}

type outcome struct {
	endpoint     endpoint
	goStatus     int
	legacyStatus int
	bodyMatch    bool
	err          error
}

func main() {
	var (
		goBase     string
		legacyBase string
		targets    string
		timeout    time.Duration
	)
	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "legacy API base URL")
	flag.StringVar(&targets, "targets", "", "optional JSON file overriding the built-in endpoint list")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	endpoints := defaultEndpoints
	if targets != "" {
		loaded, err := loadEndpoints(targets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load targets: %v\n", err)
			os.Exit(2)
		}
		endpoints = loaded
	}

	client := &http.Client{Timeout: timeout}
	breaking := 0
	for _, ep := range endpoints {
		out := compare(client, goBase, legacyBase, ep)
		report(out)
		if ep.Critical && (out.err != nil || out.goStatus != out.legacyStatus || !out.bodyMatch) {
			breaking++
		}
	}

	if breaking > 0 {
		fmt.Printf("\n%d critical endpoints diverge\n", breaking)
		os.Exit(1)
	}
	fmt.Println("\nno critical divergence")
}

func loadEndpoints(path string) ([]endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var eps []endpoint
	if err := json.Unmarshal(data, &eps); err != nil {
		return nil, err
	}
	if len(eps) == 0 {
		return nil, fmt.Errorf("no endpoints in %s", path)
	}
	return eps, nil
}

func compare(client *http.Client, goBase, legacyBase string, ep endpoint) outcome {
	out := outcome{endpoint: ep}

	goStatus, goBody, err := fetch(client, goBase, ep)
	if err != nil {
		out.err = fmt.Errorf("go request: %w", err)
		return out
	}
	legacyStatus, legacyBody, err := fetch(client, legacyBase, ep)
	if err != nil {
		out.err = fmt.Errorf("legacy request: %w", err)
		return out
	}

	out.goStatus = goStatus
	out.legacyStatus = legacyStatus
	out.bodyMatch = jsonEquivalent(goBody, legacyBody)
	return out
}

func fetch(client *http.Client, base string, ep endpoint) (int, []byte, error) {
	url := strings.TrimRight(base, "/") + ep.Path
	req, err := http.NewRequest(ep.Method, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func jsonEquivalent(a, b []byte) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	scrub(&av)
	scrub(&bv)
	return reflect.DeepEqual(av, bv)
}

func scrub(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range val {
			if volatileKeys[k] {
				delete(val, k)
				continue
			}
			child := val[k]
			scrub(&child)
			val[k] = child
		}
	case []interface{}:
		for i := range val {
			scrub(&val[i])
		}
	case float64:
		// Integral floats render as "5" in one stack and "5.0" in the
		// other; normalize to one representation.
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(out outcome) {
	label := "OK"
	switch {
	case out.err != nil:
		label = "ERROR"
	case out.goStatus != out.legacyStatus || !out.bodyMatch:
		label = "DIFF"
	}
	fmt.Printf("[%s] %s %s\n", label, out.endpoint.Method, out.endpoint.Path)
	if out.err != nil {
		fmt.Printf("  %v\n", out.err)
		return
	}
	fmt.Printf("  go=%d legacy=%d body_match=%t critical=%t\n",
		out.goStatus, out.legacyStatus, out.bodyMatch, out.endpoint.Critical)
}
