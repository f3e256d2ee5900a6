package krill

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/penguins-eggs/eggs/cache"
	log "github.com/sirupsen/logrus"
)

// GeoIPURL answers with the time zone of the caller
var GeoIPURL = "https://geoip.kde.org/v1/calamares"

// BootIDPath changes on every boot, the geoip answer is cached per boot
var BootIDPath = "/proc/sys/kernel/random/boot_id"

type geoIPAnswer struct {
	TimeZone string `json:"time_zone"`
}

// GeoIP returns the time zone of the current location. The answer is cached until
// the next boot.
func GeoIP(ctx context.Context, client *http.Client) (string, error) {
	bootID := "unknown"
	if data, err := os.ReadFile(BootIDPath); err == nil {
		bootID = strings.TrimSpace(string(data))
	}

	path, err := cache.GetOrCreate(func(path string) error {
		return fetch(ctx, client, GeoIPURL, path)
	}, "geoip", bootID+".json")
	if err != nil {
		return "", err
	}
	return readGeoIP(path)
}

// fetch downloads url to path
func fetch(ctx context.Context, client *http.Client, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geoip: %s", resp.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readGeoIP(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var a geoIPAnswer
	if err := json.Unmarshal(data, &a); err != nil {
		return "", fmt.Errorf("geoip: %w", err)
	}
	if a.TimeZone == "" {
		return "", fmt.Errorf("geoip: no time zone in the answer")
	}
	log.Debugf("geoip time zone: %s", a.TimeZone)
	return a.TimeZone, nil
}
