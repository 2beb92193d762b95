// Package ipaddr detects the caller's public IPv4 address by asking
// redundant plain-text echo services, for the firewall allow-list.
package ipaddr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mateo/cloud-agent/internal/ui"
)

// ErrDetectionFailed means every echo service failed or returned junk.
var ErrDetectionFailed = errors.New("failed to detect public IP address")

// DefaultServices are tried in order until one yields a valid address.
var DefaultServices = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://icanhazip.com",
}

// Detector queries echo services with an injectable HTTP client.
type Detector struct {
	Client   *http.Client
	Services []string
}

func NewDetector() *Detector {
	return &Detector{
		Client:   &http.Client{Timeout: 10 * time.Second},
		Services: DefaultServices,
	}
}

// PublicIPv4 returns the caller's address as a /32 CIDR block.
func (d *Detector) PublicIPv4(ctx context.Context) (string, error) {
	for _, service := range d.Services {
		ip, err := d.query(ctx, service)
		if err != nil {
			continue
		}
		if ValidIPv4(ip) {
			ui.Logf("✓ Your IPv4 address: %s", ip)
			return ip + "/32", nil
		}
	}
	return "", ErrDetectionFailed
}

func (d *Detector) query(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// ValidIPv4 reports whether s is a dotted-quad IPv4 address.
func ValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// NormalizeCIDR appends a single-host mask when the address has none.
func NormalizeCIDR(addr string) string {
	if strings.Contains(addr, "/") {
		return addr
	}
	return addr + "/32"
}
