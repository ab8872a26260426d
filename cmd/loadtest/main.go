package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/awmpietro/golang-execution-graph/internal/transport/renderdto"
)

type result struct {
	latency time.Duration
	status  int
	err     error
}

const sampleDefinition = `{
  "StartAt": "Validate Input",
  "States": {
    "Validate Input": {"Type": "Task", "Next": "Is Pdf", "Catch": [{"ErrorEquals": ["States.ALL"], "Next": "Handle Error"}]},
    "Is Pdf": {"Type": "Choice", "Choices": [
      {"Variable": "$.isPdf", "BooleanEquals": true, "Next": "Convert Document"},
      {"Variable": "$.isPdf", "BooleanEquals": false, "Next": "Handle Error"}
    ]},
    "Convert Document": {"Type": "Task", "Next": "EndProcessing"},
    "EndProcessing": {"Type": "Task", "End": true},
    "Handle Error": {"Type": "Task", "End": true}
  }
}`

const sampleEvents = `[
  {"type": "ExecutionStarted", "id": 1},
  {"type": "TaskStateEntered", "id": 2, "stateEnteredEventDetails": {"name": "Validate Input"}},
  {"type": "TaskStateExited", "id": 3, "stateExitedEventDetails": {"name": "Validate Input", "output": "{\"isPdf\":true}"}},
  {"type": "ChoiceStateEntered", "id": 4, "stateEnteredEventDetails": {"name": "Is Pdf", "input": "{\"isPdf\":true}"}},
  {"type": "ChoiceStateExited", "id": 5, "stateExitedEventDetails": {"name": "Is Pdf", "output": "{\"isPdf\":true}"}},
  {"type": "TaskStateEntered", "id": 6, "stateEnteredEventDetails": {"name": "Convert Document"}}
]`

func main() {
	url := flag.String("url", "http://localhost:8080/state-machine", "render endpoint URL")
	rps := flag.Int("rps", 50, "target requests per second")
	duration := flag.Duration("duration", 60*time.Second, "test duration")
	workers := flag.Int("workers", 50, "number of concurrent workers")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP client timeout")
	maxP90 := flag.Duration("max-p90", 30*time.Millisecond, "P90 latency threshold")
	definitionFile := flag.String("definition", "", "state machine definition file (defaults to a built-in sample)")
	eventsFile := flag.String("events", "", "execution history file (defaults to a built-in sample)")
	flag.Parse()

	if *rps <= 0 || *duration <= 0 || *workers <= 0 {
		fmt.Fprintln(os.Stderr, "rps, duration and workers must be > 0")
		os.Exit(2)
	}

	definition, err := readOr(*definitionFile, sampleDefinition)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read definition: %v\n", err)
		os.Exit(1)
	}
	events, err := readOr(*eventsFile, sampleEvents)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read events: %v\n", err)
		os.Exit(1)
	}

	payload := renderdto.RenderRequest{Definition: definition, Events: events}
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal payload: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	jobs := make(chan struct{}, *workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]result, 0, *rps*int(duration.Seconds())+1)

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				start := time.Now()
				req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
				if err != nil {
					mu.Lock()
					results = append(results, result{latency: time.Since(start), err: err})
					mu.Unlock()
					continue
				}
				req.Header.Set("Content-Type", "application/json")

				resp, err := client.Do(req)
				lat := time.Since(start)
				if err != nil {
					mu.Lock()
					results = append(results, result{latency: lat, err: err})
					mu.Unlock()
					continue
				}

				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				mu.Lock()
				results = append(results, result{latency: lat, status: resp.StatusCode})
				mu.Unlock()
			}
		}()
	}

	interval := time.Second / time.Duration(*rps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.Now().Add(*duration)
	launched := 0

	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		jobs <- struct{}{}
		launched++
	}
	close(jobs)
	wg.Wait()

	latencies := make([]time.Duration, 0, len(results))
	success2xx := 0
	non2xx := 0
	errs := 0

	for _, r := range results {
		latencies = append(latencies, r.latency)
		if r.err != nil {
			errs++
			continue
		}
		if r.status >= 200 && r.status < 300 {
			success2xx++
		} else {
			non2xx++
		}
	}

	if len(latencies) == 0 {
		fmt.Fprintln(os.Stderr, "no requests executed")
		os.Exit(1)
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 := percentile(latencies, 50)
	p90 := percentile(latencies, 90)
	p99 := percentile(latencies, 99)
	avg := average(latencies)
	achievedRPS := float64(len(latencies)) / duration.Seconds()

	fmt.Printf("Load test finished\n")
	fmt.Printf("- target_rps: %d\n", *rps)
	fmt.Printf("- achieved_rps: %.2f\n", achievedRPS)
	fmt.Printf("- duration: %s\n", duration.String())
	fmt.Printf("- requests: %d\n", len(latencies))
	fmt.Printf("- 2xx: %d\n", success2xx)
	fmt.Printf("- non_2xx: %d\n", non2xx)
	fmt.Printf("- errors: %d\n", errs)
	fmt.Printf("- avg_ms: %.3f\n", ms(avg))
	fmt.Printf("- p50_ms: %.3f\n", ms(p50))
	fmt.Printf("- p90_ms: %.3f\n", ms(p90))
	fmt.Printf("- p99_ms: %.3f\n", ms(p99))

	minRPS := float64(*rps) * 0.98
	if achievedRPS >= minRPS && p90 < *maxP90 && errs == 0 && non2xx == 0 {
		fmt.Printf("PASS: meets %d RPS and P90 < %s\n", *rps, maxP90.String())
		return
	}

	fmt.Println("FAIL: does not meet target (or has request errors)")
	os.Exit(1)
}

// readOr returns the file contents, or fallback when path is empty. A
// definition file that is not JSON (YAML) is sent as a JSON string.
func readOr(path, fallback string) (json.RawMessage, error) {
	if path == "" {
		return json.RawMessage(fallback), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if json.Valid(b) {
		return json.RawMessage(b), nil
	}
	return json.Marshal(string(b))
}

func percentile(items []time.Duration, p int) time.Duration {
	if len(items) == 0 {
		return 0
	}
	idx := (len(items) - 1) * p / 100
	return items[idx]
}

func average(items []time.Duration) time.Duration {
	if len(items) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range items {
		total += d
	}
	return total / time.Duration(len(items))
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
