package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"marketplace/internal/dispatch"
	"marketplace/pkg/status"
)

func main() {
	var (
		url     = flag.String("url", "", "dispatch endpoint url (defaults to http://localhost<HTTP_ADDR>/v1/dispatch/status)")
		kind    = flag.String("kind", "booking", "booking or bid")
		id      = flag.String("id", "", "booking or bid id")
		code    = flag.Int("status", int(status.BookingWorkerOnHisWay), "status code to push")
		secret  = flag.String("secret", os.Getenv("DISPATCH_SECRET"), "DISPATCH_SECRET")
		eventID = flag.String("event-id", "", "optional idempotency key")
	)
	flag.Parse()

	if *url == "" {
		httpAddr := os.Getenv("HTTP_ADDR")
		if httpAddr == "" {
			httpAddr = ":8081"
		}
		if httpAddr[0] == ':' {
			*url = "http://localhost" + httpAddr + "/v1/dispatch/status"
		} else {
			*url = "http://" + httpAddr + "/v1/dispatch/status"
		}
	}

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret")
		os.Exit(2)
	}
	if *id == "" {
		fmt.Fprintln(os.Stderr, "missing -id")
		os.Exit(2)
	}

	b, err := json.Marshal(map[string]any{"kind": *kind, "id": *id, "status": *code})
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode payload: %v\n", err)
		os.Exit(2)
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(b))
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(2)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(dispatch.HeaderSignature, dispatch.Sign(b, *secret))
	if *eventID != "" {
		req.Header.Set(dispatch.HeaderEventID, *eventID)
	}

	c := &http.Client{Timeout: 10 * time.Second}
	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d\n%s\n", resp.StatusCode, string(body))
}
