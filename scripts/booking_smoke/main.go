package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type classView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AvailableSlots int    `json:"available_slots"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type report struct {
	ClassID   string
	Before    int
	After     int
	Confirmed int
	Exhausted int
	Other     map[int]int
}

// OK reports whether the server neither oversold nor lost a slot.
func (r report) OK() bool {
	if len(r.Other) > 0 || r.After < 0 {
		return false
	}
	expected := r.Before
	if expected > r.Confirmed+r.Exhausted {
		expected = r.Confirmed + r.Exhausted
	}
	return r.Confirmed == expected && r.After == r.Before-r.Confirmed
}

func main() {
	var (
		base    string
		classID string
		clients int
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "Booking API base URL")
	flag.StringVar(&classID, "class", "", "Class ID to book (defaults to the first class with free slots)")
	flag.IntVar(&clients, "clients", 20, "Concurrent booking attempts")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	res, err := run(client, base, classID, clients)
	if err != nil {
		log.Fatalf("smoke run failed: %v", err)
	}
	printReport(res)
	if !res.OK() {
		os.Exit(1)
	}
}

func run(client *http.Client, base, classID string, clients int) (report, error) {
	base = strings.TrimRight(base, "/")
	before, err := fetchClasses(client, base)
	if err != nil {
		return report{}, fmt.Errorf("list classes: %w", err)
	}
	target, err := pickClass(before, classID)
	if err != nil {
		return report{}, err
	}

	res := report{ClassID: target.ID, Before: target.AvailableSlots, Other: map[int]int{}}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			status, err := book(client, base, target.ID, n)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Other[0]++
			case status == http.StatusCreated:
				res.Confirmed++
			case status == http.StatusConflict:
				res.Exhausted++
			default:
				res.Other[status]++
			}
		}(i)
	}
	wg.Wait()

	after, err := fetchClasses(client, base)
	if err != nil {
		return res, fmt.Errorf("list classes after booking: %w", err)
	}
	current, err := pickClass(after, target.ID)
	if err != nil {
		return res, err
	}
	res.After = current.AvailableSlots
	return res, nil
}

func fetchClasses(client *http.Client, base string) ([]classView, error) {
	resp, err := client.Get(base + "/classes?timezone=UTC")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode classes: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if env.Error != nil {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, env.Error.Code)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var classes []classView
	if err := json.Unmarshal(env.Data, &classes); err != nil {
		return nil, fmt.Errorf("decode classes: %w", err)
	}
	return classes, nil
}

func pickClass(classes []classView, id string) (classView, error) {
	for _, c := range classes {
		if id != "" && c.ID == id {
			return c, nil
		}
		if id == "" && c.AvailableSlots > 0 {
			return c, nil
		}
	}
	if id != "" {
		return classView{}, fmt.Errorf("class %s not listed", id)
	}
	return classView{}, errors.New("no class has free slots")
}

func book(client *http.Client, base, classID string, n int) (int, error) {
	body, err := json.Marshal(map[string]string{
		"class_id":     classID,
		"client_name":  fmt.Sprintf("Smoke Client %d", n),
		"client_email": fmt.Sprintf("smoke-%d@example.com", n),
	})
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(base+"/book", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func printReport(r report) {
	status := "OK"
	if !r.OK() {
		status = "FAIL"
	}
	fmt.Println("Booking Smoke Report")
	fmt.Println("====================")
	fmt.Printf("[%s] class %s\n", status, r.ClassID)
	fmt.Printf("  Slots before: %d | after: %d\n", r.Before, r.After)
	fmt.Printf("  Confirmed: %d | Exhausted: %d\n", r.Confirmed, r.Exhausted)
	for code, n := range r.Other {
		fmt.Printf("  Unexpected status %d: %d\n", code, n)
	}
}
