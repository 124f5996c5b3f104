package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"reelstudio/internal/pkg/errors"
)

// Env returns the trimmed value of k, or def when it is blank.
func Env(k, def string) string {
	return parsedEnv(k, def, func(v string) (string, error) { return v, nil })
}

// MustEnv returns the value of k or a validation error naming the key.
func MustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", errors.ValidationField(k, "missing env: "+k)
	}
	return v, nil
}

// parsedEnv returns def when k is unset, blank or fails to parse.
func parsedEnv[T any](k string, def T, parse func(string) (T, error)) T {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

// BoolEnv accepts what strconv.ParseBool accepts.
func BoolEnv(k string, def bool) bool {
	return parsedEnv(k, def, strconv.ParseBool)
}

func IntEnv(k string, def int) int {
	return parsedEnv(k, def, strconv.Atoi)
}

func FloatEnv(k string, def float64) float64 {
	return parsedEnv(k, def, func(v string) (float64, error) {
		return strconv.ParseFloat(v, 64)
	})
}

// DurationEnv accepts Go durations ("90s", "30m") or a bare number of
// seconds.
func DurationEnv(k string, def time.Duration) time.Duration {
	return parsedEnv(k, def, func(v string) (time.Duration, error) {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		return time.ParseDuration(v)
	})
}

// CSVEnv splits a comma separated list, dropping empty items.
func CSVEnv(k string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
