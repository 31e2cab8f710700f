// Command mock-radclient is a stand-in for the real RADIUS test client,
// for manual runs and CI environments without a server. It accepts the
// same invocation shape the driver uses:
//
//	mock-radclient [-t timeout] [-r retries] host:port auth secret
//
// with the attribute payload on stdin, and simulates outcomes:
//
//	MOCK_LATENCY_MS  base response latency (default 20)
//	MOCK_JITTER_MS   +/- latency jitter (default 10)
//	MOCK_FAIL_RATE   fraction of requests rejected (default 0)
//	MOCK_TIMEOUT_RATE fraction of requests never answered (default 0)
//
// A rejected request exits 1 after the normal latency. An unanswered
// request sleeps through the full timeout*retries budget and then exits
// 1, which is how the real tool behaves against a silent server.
package main

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("mock-radclient: ")

	timeoutSec := 3
	retries := 1
	var positional []string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-t":
			i++
			if i >= len(args) {
				log.Fatal("-t requires a value")
			}
			v, err := strconv.Atoi(args[i])
			if err != nil {
				log.Fatalf("invalid -t value %q", args[i])
			}
			timeoutSec = v
		case "-r":
			i++
			if i >= len(args) {
				log.Fatal("-r requires a value")
			}
			v, err := strconv.Atoi(args[i])
			if err != nil {
				log.Fatalf("invalid -r value %q", args[i])
			}
			retries = v
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) != 3 {
		log.Fatalf("usage: mock-radclient [-t sec] [-r count] host:port auth secret (got %d args)", len(positional))
	}
	target, mode, secret := positional[0], positional[1], positional[2]
	if mode != "auth" {
		log.Fatalf("unsupported mode %q", mode)
	}
	if secret == "" {
		log.Fatal("empty shared secret")
	}

	// The driver always delivers the attribute payload on stdin.
	scanner := bufio.NewScanner(os.Stdin)
	var payload string
	if scanner.Scan() {
		payload = strings.TrimSpace(scanner.Text())
	}
	if !strings.Contains(payload, "User-Name") {
		log.Fatalf("payload missing User-Name attribute: %q", payload)
	}

	latency := time.Duration(envInt("MOCK_LATENCY_MS", 20)) * time.Millisecond
	jitter := time.Duration(envInt("MOCK_JITTER_MS", 10)) * time.Millisecond
	failRate := envFloat("MOCK_FAIL_RATE", 0)
	timeoutRate := envFloat("MOCK_TIMEOUT_RATE", 0)

	roll := rand.Float64()

	if roll < timeoutRate {
		// Silent server: wait out the full retry budget, then give up.
		budget := time.Duration(timeoutSec) * time.Second
		if retries > 1 {
			budget *= time.Duration(retries)
		}
		time.Sleep(budget)
		fmt.Printf("mock-radclient: no reply from server for %s\n", target)
		os.Exit(1)
	}

	sleep := latency
	if jitter > 0 {
		sleep += time.Duration(rand.Int63n(int64(2*jitter))) - jitter
	}
	if sleep > 0 {
		time.Sleep(sleep)
	}

	if roll < timeoutRate+failRate {
		fmt.Printf("Received Access-Reject Id 1 from %s\n", target)
		os.Exit(1)
	}

	fmt.Printf("Received Access-Accept Id 1 from %s\n", target)
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
