package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Services  struct {
		Database ComponentHealth `json:"database"`
		Queue    ComponentHealth `json:"queue"`
		Storage  ComponentHealth `json:"storage"`
	} `json:"services"`
}

func main() {
	url := "http://localhost:8080/health"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	fmt.Printf("🔍 Testing health endpoint: %s\n", url)

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("❌ Error connecting to health endpoint: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("❌ Error reading response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("📊 Response Status: %s\n", resp.Status)

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		fmt.Printf("❌ Error parsing JSON response: %v\n", err)
		fmt.Printf("📄 Response Body: %s\n", string(body))
		os.Exit(1)
	}

	components := []struct {
		name   string
		health ComponentHealth
	}{
		{"Database", health.Services.Database},
		{"Queue", health.Services.Queue},
		{"Storage", health.Services.Storage},
	}

	failed := resp.StatusCode != http.StatusOK || health.Status != "ok"
	for _, c := range components {
		if c.health.Status != "ok" {
			failed = true
			fmt.Printf("❌ %s status is not 'ok': %s\n", c.name, c.health.Status)
			if c.health.Error != "" {
				fmt.Printf("   %s error: %s\n", c.name, c.health.Error)
			}
		}
	}
	if failed {
		fmt.Printf("❌ Health check failed with status: %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Printf("✅ Health check passed!\n")
	fmt.Printf("   Status: %s\n", health.Status)
	fmt.Printf("   Version: %s\n", health.Version)
	for _, c := range components {
		fmt.Printf("   %s: %s\n", c.name, c.health.Status)
	}
	fmt.Printf("   Timestamp: %s\n", health.Timestamp)
}
