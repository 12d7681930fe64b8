package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"time"
)

const geoLookupURL = "http://ip-api.com/json/%s"

var geoClient = &http.Client{Timeout: 3 * time.Second}

// GetIPLocation resolves a coarse "City, Country" label for a session row.
// Loopback, private and unparsable addresses are reported as Local; lookup
// failures as Unknown.
func GetIPLocation(ctx context.Context, ipAddress string) string {
	addr, err := netip.ParseAddr(ipAddress)
	if err != nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() {
		return "Local"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(geoLookupURL, addr), nil)
	if err != nil {
		return "Unknown"
	}
	resp, err := geoClient.Do(req)
	if err != nil {
		return "Unknown"
	}
	defer resp.Body.Close()

	var result struct {
		Status  string `json:"status"`
		Country string `json:"country"`
		City    string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "Unknown"
	}
	if result.City != "" && result.Country != "" {
		return result.City + ", " + result.Country
	}
	if result.Country != "" {
		return result.Country
	}
	return "Unknown"
}
