package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:8086"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numUsers     = 200
)

var stats = []string{"vitality", "energy", "nutrition"}

var names = []string{"Luna", "Paco", "Killa", "Inti", "Wayra", "Nina"}

var animals = []string{"alpaca", "condor", "frog", "hummingbird"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type epStats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func userID(rng *rand.Rand) string {
	return fmt.Sprintf("load-user-%d", rng.Intn(numUsers))
}

func main() {
	fmt.Println("=== RegenWasi Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Users: %d\n\n", numWorkers, testDuration, numUsers)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: Adopt pets for every namespace
	fmt.Println("\n--- Phase 1: Adoption (POST /pet) ---")
	runPhase(3*time.Second, func(rng *rand.Rand) result {
		return doAdopt(rng)
	})

	// Phase 2: Interaction-heavy load
	fmt.Println("\n--- Phase 2: Interaction load (60% actions, 40% reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return doAction(rng)
		case r < 0.60:
			return doFeed(rng)
		case r < 0.85:
			return doGetState(rng)
		default:
			return doGetActivity(rng)
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% actions, 90% reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doAction(rng)
		case r < 0.60:
			return doGetState(rng)
		case r < 0.85:
			return doGetActivity(rng)
		default:
			return doGetMessages(rng)
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*epStats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &epStats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*epStats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-24s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 90))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-24s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 90))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doJSON(endpoint, method, path, user string, body any, wantStatus ...int) result {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return result{endpoint, 0, 0, true}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", user)

	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	ok := false
	for _, s := range wantStatus {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	return result{endpoint, resp.StatusCode, lat, !ok}
}

func doAdopt(rng *rand.Rand) result {
	body := map[string]string{
		"name":   names[rng.Intn(len(names))],
		"animal": animals[rng.Intn(len(animals))],
	}
	// 409 means this namespace already adopted, which is fine under contention
	return doJSON("POST /pet", http.MethodPost, "/pet", userID(rng), body, 201, 409)
}

func doAction(rng *rand.Rand) result {
	body := map[string]string{"stat": stats[rng.Intn(len(stats))]}
	return doJSON("POST /pet/action", http.MethodPost, "/pet/action", userID(rng), body, 200, 404)
}

func doFeed(rng *rand.Rand) result {
	// Broke or already-full pets answer 409
	return doJSON("POST /pet/feed", http.MethodPost, "/pet/feed", userID(rng), nil, 200, 404, 409)
}

func doGetState(rng *rand.Rand) result {
	return doJSON("GET /pet", http.MethodGet, "/pet", userID(rng), nil, 200, 404)
}

func doGetActivity(rng *rand.Rand) result {
	return doJSON("GET /pet/activity", http.MethodGet, "/pet/activity", userID(rng), nil, 200, 404)
}

func doGetMessages(rng *rand.Rand) result {
	return doJSON("GET /chat/messages", http.MethodGet, "/chat/messages", userID(rng), nil, 200)
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
