package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace/internal/auth"
	"marketplace/internal/dispatch"
	"marketplace/pkg/config"
	"marketplace/pkg/db"
	"marketplace/pkg/marketplace"
	"marketplace/pkg/status"
)

type seed struct {
	customerID string
	workerIDs  []string
	bidID      string
	bookingID  string
}

func main() {
	var (
		baseURL = flag.String("base-url", "", "api base url (defaults to http://localhost<HTTP_ADDR>)")
		suffix  = flag.String("suffix", fmt.Sprintf("%d", time.Now().Unix()), "unique suffix for seeded emails")
	)
	flag.Parse()

	cfg := config.Load()
	if *baseURL == "" {
		*baseURL = defaultBaseURL(cfg.HTTPAddr)
	}
	if cfg.Auth.JWTSecret == "" || cfg.Dispatch.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET and DISPATCH_SECRET must be set (env or .env)")
		os.Exit(2)
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	s, err := seedData(ctx, pool, *suffix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded customer=%s bid=%s booking=%s\n", s.customerID, s.bidID, s.bookingID)

	customer := client(cfg, *baseURL, s.customerID, status.RoleCustomer)
	worker := client(cfg, *baseURL, s.workerIDs[0], status.RoleWorker)

	bid, err := customer.GetBid(ctx, s.bidID)
	must(err, "get bid")
	fmt.Printf("bid %s: %s (badge=%s) actions=%+v\n", bid.ID, bid.Label, bid.Badge.Variant, bid.Actions)

	offers, err := customer.ListOffers(ctx, s.bidID)
	must(err, "list offers")
	if len(offers) == 0 {
		fmt.Fprintln(os.Stderr, "no offers seeded")
		os.Exit(1)
	}
	acc, err := customer.AcceptOffer(ctx, s.bidID, offers[0].ID)
	must(err, "accept offer")
	fmt.Printf("accepted offer %s -> booking %s, bid now %s\n", offers[0].ID, acc.BookingID, acc.Bid.Label)

	// A confirmed bid must refuse further offer browsing.
	if _, err := customer.ListOffers(ctx, s.bidID); err != nil {
		fmt.Printf("offers after accept: %v\n", err)
	}

	canceled, err := worker.CancelBooking(ctx, s.bookingID, "schedule conflict")
	must(err, "worker cancel")
	fmt.Printf("booking %s canceled by worker: %s (%s)\n", canceled.ID, canceled.Label, canceled.StatusName)

	for _, code := range []status.BookingStatus{
		status.BookingWorkerOnHisWay,
		status.BookingWorkerOnYourDoorstep,
		status.BookingWorkerStartedWork,
		status.BookingCompleted,
	} {
		must(pushStatus(*baseURL, cfg.Dispatch.Secret, acc.BookingID, code), "dispatch push")
		b, err := customer.GetBooking(ctx, acc.BookingID)
		must(err, "get booking")
		fmt.Printf("booking %s: %s color=%s canCancel=%v canAddReview=%v\n", b.ID, b.Label, b.Badge.Color, b.Actions.CanCancel, b.Actions.CanAddReview)
	}

	rev, err := customer.AddReview(ctx, acc.BookingID, 5, "on time and tidy")
	must(err, "add review")
	fmt.Printf("review %s rating=%d\n", rev.ID, rev.Rating)

	history, err := customer.BookingEvents(ctx, acc.BookingID)
	must(err, "booking events")
	for _, e := range history {
		fmt.Printf("  %s %d -> %d by %s\n", e.OccurredAt.Format(time.RFC3339), e.FromStatus, e.ToStatus, e.Actor)
	}
}

func client(cfg config.Config, baseURL, userID string, role status.Role) marketplace.Client {
	tok, err := auth.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Audience, userID, role, time.Now(), time.Hour)
	must(err, "issue token")
	return marketplace.Client{BaseURL: baseURL, Token: tok}
}

func seedData(ctx context.Context, pool *pgxpool.Pool, suffix string) (*seed, error) {
	s := &seed{}
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		const qUser = `INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`
		if err := tx.QueryRow(ctx, qUser, "Casey Customer", "customer+"+suffix+"@example.com", "customer").Scan(&s.customerID); err != nil {
			return err
		}
		for i, name := range []string{"Wren Worker", "Quinn Worker"} {
			var id string
			email := fmt.Sprintf("worker%d+%s@example.com", i, suffix)
			if err := tx.QueryRow(ctx, qUser, name, email, "worker").Scan(&id); err != nil {
				return err
			}
			s.workerIDs = append(s.workerIDs, id)
		}

		const qBid = `
INSERT INTO bids (customer_id, service_name, description, address, budget)
VALUES ($1, 'Deep cleaning', 'Two bedroom flat', '12 Harbour Road', 120)
RETURNING id
`
		if err := tx.QueryRow(ctx, qBid, s.customerID).Scan(&s.bidID); err != nil {
			return err
		}
		const qOffer = `INSERT INTO offers (bid_id, worker_id, price, message) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, qOffer, s.bidID, s.workerIDs[0], 95, "Can start tomorrow"); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, qOffer, s.bidID, s.workerIDs[1], 110, "Eco products included"); err != nil {
			return err
		}

		const qBooking = `
INSERT INTO bookings (customer_id, worker_id, service_name, address, price, scheduled_at)
VALUES ($1, $2, 'Window washing', '12 Harbour Road', 40, NOW() + INTERVAL '2 days')
RETURNING id
`
		return tx.QueryRow(ctx, qBooking, s.customerID, s.workerIDs[0]).Scan(&s.bookingID)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func pushStatus(baseURL, secret, bookingID string, code status.BookingStatus) error {
	b, err := json.Marshal(map[string]any{"kind": "booking", "id": bookingID, "status": int(code)})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/dispatch/status", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(dispatch.HeaderSignature, dispatch.Sign(b, secret))
	req.Header.Set(dispatch.HeaderEventID, fmt.Sprintf("devflow-%s-%d", bookingID, code))

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("dispatch push status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

func defaultBaseURL(httpAddr string) string {
	if httpAddr == "" {
		httpAddr = ":8081"
	}
	if httpAddr[0] == ':' {
		return "http://localhost" + httpAddr
	}
	return "http://" + httpAddr
}

func must(err error, what string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
		os.Exit(1)
	}
}
