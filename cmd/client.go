package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/grovetools/agentwatch/pkg/paths"
)

// resolveAddr returns the explicit address, or the one the running server
// recorded when it started.
func resolveAddr(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	data, err := os.ReadFile(paths.AddrFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("agentwatch does not appear to be running (no %s); start it with 'agentwatch serve' or pass --addr", paths.AddrFilePath())
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// submitMessage posts message to the server at addr and reports whether the
// gate accepted it.
func submitMessage(client *http.Client, addr, message string) (bool, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return false, err
	}
	resp, err := client.Post("http://"+addr+"/api/message", "application/json", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to reach server at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	var result struct {
		Accepted bool   `json:"accepted"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("unexpected response from server: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("server returned %d: %s", resp.StatusCode, result.Error)
	}
	return result.Accepted, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
