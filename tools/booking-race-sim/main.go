// Command booking-race-sim fires concurrent bookings at one slot and prints
// the status histogram. A healthy service answers with exactly one 201.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

func main() {
	var (
		baseURL = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "salon-service base url")
		date    = flag.String("date", getenv("BOOKING_DATE", time.Now().AddDate(0, 0, 7).Format("2006-01-02")), "booking date (YYYY-MM-DD)")
		slot    = flag.String("time", getenv("BOOKING_TIME", "10:00"), "slot time (HH:mm)")
		service = flag.String("service", getenv("BOOKING_SERVICE", "Haircut"), "service name")
		n       = flag.Int("n", 20, "number of concurrent requests")
	)
	flag.Parse()

	if *n < 1 {
		fatal("-n must be at least 1")
	}

	url := strings.TrimRight(*baseURL, "/") + "/api/bookings"
	client := &http.Client{Timeout: 15 * time.Second}

	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
		start  = make(chan struct{})
	)
	for i := 0; i < *n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{
				"name":    fmt.Sprintf("Race Client %02d", i),
				"phone":   fmt.Sprintf("55501%05d", i),
				"service": *service,
				"date":    *date,
				"time":    *slot,
			})
			<-start
			key := post(client, url, body)
			mu.Lock()
			counts[key]++
			mu.Unlock()
		}(i)
	}
	close(start)
	wg.Wait()

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%d\n", k, counts[k])
	}
	if counts["status=201"] != 1 {
		fmt.Fprintf(os.Stderr, "expected exactly one 201, got %d\n", counts["status=201"])
		os.Exit(1)
	}
}

func post(client *http.Client, url string, body []byte) string {
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "error"
	}
	defer resp.Body.Close()
	return fmt.Sprintf("status=%d", resp.StatusCode)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
