// Package breach screens candidate passwords against an external breach
// corpus using k-anonymous hashing: only the first five characters of
// the SHA-1 digest ever leave the process.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/obs"
)

const defaultEndpoint = "https://api.pwnedpasswords.com/range"

// Result reports whether the password appeared in the corpus and how
// many times.
type Result struct {
	Breached bool `json:"breached"`
	Count    int  `json:"count"`
}

// Checker queries a range endpoint of the breach corpus. The endpoint is
// swappable so tests can point it at a stub server.
type Checker struct {
	httpClient *http.Client
	endpoint   string
}

// NewChecker constructs a Checker. A nil client gets a 5 second timeout:
// the lookup sits on the login path and must not hang it.
func NewChecker(httpClient *http.Client, endpoint string) *Checker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Checker{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

// Check screens the password. Fail-open: any transport, status or parse
// failure yields {false, 0}. Blocking authentication on a third-party
// outage is the worse failure mode, so the error is logged and absorbed,
// never surfaced to the caller. The password itself is never logged.
func (c *Checker) Check(ctx context.Context, password string) Result {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:5], digest[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+prefix, nil)
	if err != nil {
		return c.failOpen(err)
	}
	req.Header.Set("User-Agent", "sen-alerte-auth/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failOpen(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.failOpen(fmt.Errorf("breach corpus returned status %d", resp.StatusCode))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		candidate, count, ok := splitLine(line)
		if !ok {
			continue
		}
		if strings.EqualFold(candidate, suffix) {
			obs.ObserveBreachLookup("breached")
			return Result{Breached: true, Count: count}
		}
	}
	if err := scanner.Err(); err != nil {
		return c.failOpen(err)
	}

	obs.ObserveBreachLookup("ok")
	return Result{}
}

func (c *Checker) failOpen(err error) Result {
	obs.ObserveBreachLookup("error")
	obs.Warn("breach corpus lookup failed, failing open", map[string]any{
		"error": err.Error(),
	})
	return Result{}
}

func splitLine(line string) (suffix string, count int, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
	if err != nil {
		return "", 0, false
	}
	return line[:idx], n, true
}
