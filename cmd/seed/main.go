// File: cmd/seed/main.go
//
// Small helper that logs in against a running instance and submits a
// demo discovery job. Useful for smoke-testing a dev stack.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the running service")
	adminKey := flag.String("admin-key", "dev-admin-key", "operator admin key")
	platform := flag.String("platform", "tiktok", "target platform")
	region := flag.String("region", "US", "target region")
	keywords := flag.String("keywords", "fitness,workout", "comma-separated seed keywords")
	target := flag.Int("target", 100, "target result count")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	token, err := login(client, *baseURL, *adminKey)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	body, _ := json.Marshal(map[string]any{
		"platform": *platform,
		"region":   *region,
		"keywords": strings.Split(*keywords, ","),
		"target":   *target,
	})
	req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/v1/jobs", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("create job: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create job: unexpected status %s", resp.Status)
	}

	var created struct {
		ID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatalf("decode: %v", err)
	}
	fmt.Printf("job created: %s\n", created.ID)
	fmt.Printf("watch it with: curl -H 'Authorization: Bearer %s' %s/api/v1/jobs/%s\n", token, *baseURL, created.ID)
}

func login(client *http.Client, baseURL, adminKey string) (string, error) {
	body, _ := json.Marshal(map[string]string{"admin_key": adminKey})
	resp, err := client.Post(baseURL+"/api/v1/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}
