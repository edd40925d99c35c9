// simulate fires N concurrent booking requests at the same department, date
// and slot and reports the outcome split. Against a correct deployment
// exactly one request succeeds and the rest get a slot conflict.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

type result struct {
	status int
	body   string
}

func main() {
	log.SetFlags(log.LstdFlags)

	baseURL := flag.String("base-url", "http://localhost:8080", "api-server base URL")
	departmentID := flag.String("department", "", "department UUID")
	date := flag.String("date", "", "date YYYY-MM-DD")
	slot := flag.Int("slot", 1, "slot number")
	clients := flag.String("clients", "", "comma-separated client UUIDs, one per request")
	concurrency := flag.Int("n", 10, "number of concurrent requests")
	flag.Parse()

	if *departmentID == "" || *date == "" || *clients == "" {
		log.Fatal("department, date and clients are required")
	}

	clientIDs := splitNonEmpty(*clients)
	if len(clientIDs) < *concurrency {
		log.Fatalf("need at least %d client ids, got %d", *concurrency, len(clientIDs))
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	var wg sync.WaitGroup
	results := make([]result, *concurrency)
	start := make(chan struct{})

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = fire(httpClient, *baseURL, clientIDs[i], *departmentID, *date, *slot)
		}(i)
	}

	log.Printf("firing %d concurrent bookings for %s slot %d", *concurrency, *date, *slot)
	close(start)
	wg.Wait()

	counts := make(map[int]int)
	for _, r := range results {
		counts[r.status]++
	}

	log.Printf("outcomes: %v", counts)
	if counts[http.StatusOK] == 1 && counts[http.StatusConflict] == *concurrency-1 {
		log.Println("PASS: exactly one booking won the slot")
		return
	}
	for _, r := range results {
		log.Printf("status=%d body=%s", r.status, r.body)
	}
	log.Fatal("FAIL: expected exactly one success and conflicts for the rest")
}

func fire(c *http.Client, baseURL, clientID, departmentID, date string, slot int) result {
	payload, _ := json.Marshal(map[string]any{
		"client_id":     clientID,
		"department_id": departmentID,
		"date":          date,
		"slot_number":   slot,
	})

	resp, err := c.Post(baseURL+"/appointments", "application/json", bytes.NewReader(payload))
	if err != nil {
		return result{status: -1, body: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return result{status: resp.StatusCode, body: string(body)}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
