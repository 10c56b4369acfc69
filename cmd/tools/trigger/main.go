package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Kicks off a background scrape (or reprocess) job on a running server.
func main() {
	baseURL := flag.String("server", "http://localhost:8081", "server base URL")
	job := flag.String("job", "scrape", "job to trigger: scrape or process")
	flag.Parse()

	adminSecret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
	if adminSecret == "" {
		fmt.Println("Missing ADMIN_SECRET environment variable")
		os.Exit(1)
	}

	if *job != "scrape" && *job != "process" {
		fmt.Printf("Unknown job %q\n", *job)
		os.Exit(1)
	}

	url := fmt.Sprintf("%s/api/v1/admin/%s", strings.TrimRight(*baseURL, "/"), *job)
	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-Admin-Secret", adminSecret)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response Status: %s\n%s\n", resp.Status, body)
	if resp.StatusCode != http.StatusAccepted {
		os.Exit(1)
	}
}
