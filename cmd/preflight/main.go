// cmd/preflight/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	sqlitePath := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	webhook := strings.TrimSpace(os.Getenv("ALERT_WEBHOOK_URL"))
	seed := strings.TrimSpace(os.Getenv("SEED_FILE"))

	if addr == "" {
		warn("ADDR is empty; the server will bind :8000.")
	} else {
		ok("ADDR=" + addr)
	}

	if db != "" {
		ok("DATABASE_URL present — using postgres")
	} else if sqlitePath != "" {
		ok("SQLITE_PATH=" + sqlitePath)
	} else {
		warn("no DATABASE_URL or SQLITE_PATH — embedded store defaults to data/monitor.db")
	}

	if webhook == "" {
		warn("ALERT_WEBHOOK_URL empty — down alerts will be logged but not delivered.")
	} else if !strings.HasPrefix(webhook, "http://") && !strings.HasPrefix(webhook, "https://") {
		fail("ALERT_WEBHOOK_URL is not an http(s) URL: " + webhook)
	} else {
		ok("ALERT_WEBHOOK_URL present")
	}

	if seed != "" {
		data, err := os.ReadFile(seed)
		if err != nil {
			fail("SEED_FILE unreadable: " + err.Error())
		}
		var clients map[string]string
		if err := json.Unmarshal(data, &clients); err != nil {
			fail("SEED_FILE is not a JSON {\"name\": \"url\"} object: " + err.Error())
		}
		ok(fmt.Sprintf("SEED_FILE parses (%d clients)", len(clients)))
	}

	for _, key := range []string{"CHECK_INTERVAL", "SYSTEM_INTERVAL", "PROBE_TIMEOUT"} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			fail(key + " does not parse as a duration: " + v)
		}
		ok(key + "=" + v)
	}

	ok("preflight passed")
}
