//go:build ignore
// +build ignore

// Seeds a running server with demo records so the forecast and suggestion
// endpoints have history to work with.
//
// Usage: go run scripts/seed-demo.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	owner := os.Getenv("OWNER")
	if owner == "" {
		owner = "demo-user"
	}

	log.Printf("Seeding demo data for %s at %s", owner, apiURL)

	now := time.Now()
	rng := rand.New(rand.NewSource(42))

	// Six months of categorized expenses.
	categories := map[string]float64{
		"Food":          450,
		"Transport":     120,
		"Entertainment": 90,
		"Bills":         300,
	}
	for back := 6; back >= 1; back-- {
		monthStart := now.AddDate(0, -back, 0)
		for cat, base := range categories {
			for i := 0; i < 4; i++ {
				amount := base/4 + rng.Float64()*base/10
				date := monthStart.AddDate(0, 0, rng.Intn(27))
				post(apiURL, owner, "/api/v1/expenses", map[string]any{
					"amount":      round2(amount),
					"date":        date.Format(time.RFC3339),
					"category":    cat,
					"description": fmt.Sprintf("%s demo spend", cat),
				})
			}
		}
		post(apiURL, owner, "/api/v1/incomes", map[string]any{
			"amount": 4200,
			"date":   monthStart.AddDate(0, 0, 1).Format(time.RFC3339),
			"source": "Salary",
		})
	}

	// A savings goal with a deadline next spring.
	post(apiURL, owner, "/api/v1/goals", map[string]any{
		"targetAmount": 5000,
		"savedAmount":  1200,
		"targetDate":   now.AddDate(0, 9, 0).Format(time.RFC3339),
		"description":  "Emergency fund",
	})

	// One existing holding so suggestions default to a real portfolio.
	post(apiURL, owner, "/api/v1/holdings", map[string]any{
		"ticker":        "AAPL",
		"purchaseDate":  now.AddDate(0, -2, 0).Format(time.RFC3339),
		"quantity":      2,
		"purchasePrice": 185.50,
	})

	log.Println("Done")
}

func post(apiURL, owner, path string, body map[string]any) {
	b, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal %s: %v", path, err)
	}
	req, err := http.NewRequest(http.MethodPost, apiURL+path, bytes.NewReader(b))
	if err != nil {
		log.Fatalf("request %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner", owner)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("POST %s: status %d", path, resp.StatusCode)
	}
}

func round2(v float64) float64 {
	return float64(int(v*100)) / 100
}
