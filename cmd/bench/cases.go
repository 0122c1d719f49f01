// README: Benchmark cases for the turn API; environment, seeding, scenario, and performance checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"concierge/internal/infra"
	"concierge/internal/modules/catalog"
	"concierge/internal/modules/negotiation"
	"concierge/internal/modules/relaxation"
	"concierge/internal/modules/strategy"
	"concierge/internal/modules/turn"
	"concierge/internal/types"
)

const (
	benchQuery   = "benchlamp"
	benchProduct = "bench_lamp_01"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	decideURL := base + "/api/turns/decide"
	respondURL := base + "/api/turns/respond"
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "catalog and negotiation rules reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "session store reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				if err := infra.ApplyMigrations(ctx, r.db, r.cfg.MigrationPath); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "tables from migrations/0001_init.sql",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Seed: bench products and rule",
			Focus: "20 products over 3 price bands, discount ladder [7,3]",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.Seed {
					return Result{Status: "SKIP", Note: "seed=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				if err := seed(ctx, r.db, r.cfg.StoreID); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: health",
			Focus: "server reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return Result{Status: "FAIL", Latency: time.Since(start), Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},

		httpCase("Turn: decide without session -> 400", decideURL, map[string]any{"query": benchQuery}, []int{400}, nil),
		httpCase("Turn: decide malformed filters -> 400", decideURL, map[string]any{"sessionId": "x", "filters": []int{1}}, []int{400}, nil),

		{
			Name:  "Decide: spread prices ask price band",
			Focus: "price_bucket clarifier with 3 options",
			Run: func(ctx context.Context, r *Runner) Result {
				var intent turn.Intent
				res := postJSON(ctx, r, decideURL, turn.Request{SessionID: newSession(), Query: benchQuery}, &intent)
				if res.Status != "PASS" {
					return res
				}
				st := intent.Strategy
				if st.Action != strategy.ActionAskClarifier || st.FacetToAsk != catalog.FacetPrice || len(st.OptionValues) != 3 {
					return fail(res, "strategy=%s facet=%q options=%v", st.Action, st.FacetToAsk, st.OptionValues)
				}
				return res
			},
		},
		{
			Name:  "Decide: empty results relax price then style",
			Focus: "two relaxation steps in priority order",
			Run: func(ctx context.Context, r *Runner) Result {
				var intent turn.Intent
				res := postJSON(ctx, r, decideURL, turn.Request{
					SessionID: newSession(),
					Query:     benchQuery,
					Filters:   catalog.Filters{catalog.FacetPrice: "Under $50", catalog.FacetStyle: "city"},
				}, &intent)
				if res.Status != "PASS" {
					return res
				}
				steps := intent.RelaxationSteps
				if len(steps) != 2 || steps[0].Facet != catalog.FacetPrice || steps[1].Facet != catalog.FacetStyle {
					return fail(res, "steps=%v", facetsOf(steps))
				}
				if len(intent.Filters) != 0 || len(intent.Items) == 0 {
					return fail(res, "filters=%v items=%d", intent.Filters, len(intent.Items))
				}
				return res
			},
		},
		{
			Name:  "Negotiation: objections walk the discount ladder",
			Focus: "anchor, 7%, 3%, then nothing",
			Run: func(ctx context.Context, r *Runner) Result {
				sid := newSession()
				price := &types.Money{Amount: 3000, Currency: "USD"}
				want := []string{"anchor", "discount:7", "discount:3", "none"}
				var total time.Duration
				for i, w := range want {
					var intent turn.Intent
					res := postJSON(ctx, r, decideURL, turn.Request{
						SessionID:    sid,
						StoreID:      r.cfg.StoreID,
						Query:        "that's too expensive",
						ProductID:    benchProduct,
						ProductPrice: price,
					}, &intent)
					total += res.Latency
					if res.Status != "PASS" {
						return res
					}
					if got := outcomeLabel(intent.NegotiationOutcome); got != w {
						return fail(Result{Latency: total}, "objection %d: got %s want %s", i+1, got, w)
					}
				}
				return Result{Status: "PASS", Latency: total}
			},
		},
		{
			Name:  "Respond: repeated opener is rewritten",
			Focus: "second turn does not reuse the first opener",
			Run: func(ctx context.Context, r *Runner) Result {
				sid := newSession()
				var first, second turn.Response
				res := postJSON(ctx, r, respondURL, turn.Request{SessionID: sid, Query: benchQuery}, &first)
				if res.Status != "PASS" {
					return res
				}
				res2 := postJSON(ctx, r, respondURL, turn.Request{SessionID: sid, Query: benchQuery + " again"}, &second)
				res2.Latency += res.Latency
				if res2.Status != "PASS" {
					return res2
				}
				a, b := firstSentence(first.Turn.Lead), firstSentence(second.Turn.Lead)
				if a != "" && a == b {
					return fail(res2, "opener repeated: %q", a)
				}
				res2.Note = fmt.Sprintf("regenerated=%t repeated=%t", second.Regenerated, second.OpenerRepeated)
				return res2
			},
		},

		{
			Name:  "Concurrency: parallel decides on one session",
			Focus: "no 5xx under concurrent writes to one session",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentDecide(ctx, r, decideURL)
			},
		},

		manualCase("Error: Redis down -> degraded session", "stop Redis and check intent.degraded contains session"),
		manualCase("Error: DB down -> degraded retrieval", "stop Postgres and check intent.degraded contains retrieval"),

		{
			Name:  "Perf: decide throughput",
			Focus: "decide turns per second",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, decideURL, turn.Request{SessionID: "bench-perf", Query: benchQuery})
			},
		},
	}
}

// seed upserts the bench catalog: 10 items under $50, 7 in $50-$100, 3 in $100-$200, with no
// other facet variance, plus a [7,3] discount ladder on the first item.
func seed(ctx context.Context, db *pgxpool.Pool, storeID string) error {
	prices := make([]int64, 0, 20)
	for i := 0; i < 10; i++ {
		prices = append(prices, 3000)
	}
	for i := 0; i < 7; i++ {
		prices = append(prices, 7500)
	}
	for i := 0; i < 3; i++ {
		prices = append(prices, 15000)
	}
	for i, p := range prices {
		_, err := db.Exec(ctx, `
			INSERT INTO products (id, title, price_amount, currency, tags, category, vendor, attributes)
			VALUES ($1, $2, $3, 'USD', '{}', 'lighting', 'Lumen', '{"style":"classic"}')
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, price_amount = EXCLUDED.price_amount`,
			fmt.Sprintf("bench_lamp_%02d", i+1), fmt.Sprintf("Benchlamp %02d", i+1), p,
		)
		if err != nil {
			return fmt.Errorf("seed product %d: %w", i+1, err)
		}
	}
	return negotiation.NewRuleStore(db).PutRule(ctx, negotiation.Rule{
		StoreID:       storeID,
		ProductID:     benchProduct,
		AnchorCopy:    "It's hand-finished and comes with a two-year warranty.",
		DiscountSteps: []float64{7, 3},
		RiskCopy:      "Free returns within 30 days.",
	})
}

func postJSON(ctx context.Context, r *Runner, url string, body, out any) Result {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return Result{Status: "PENDING", Latency: latency, Note: "renderer unavailable"}
	case resp.StatusCode != http.StatusOK:
		return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Result{Status: "FAIL", Latency: latency, Note: "decode: " + err.Error()}
	}
	return Result{Status: "PASS", Latency: latency}
}

func fail(res Result, format string, args ...any) Result {
	res.Status = "FAIL"
	res.Note = fmt.Sprintf(format, args...)
	return res
}

func newSession() string {
	return "bench-" + uuid.NewString()
}

func outcomeLabel(o *negotiation.Outcome) string {
	if o == nil {
		return "none"
	}
	if o.Stage == negotiation.StageDiscount {
		return fmt.Sprintf("discount:%g", o.DiscountPercent)
	}
	return string(o.Stage)
}

func facetsOf(steps []relaxation.Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Facet)
	}
	return out
}

func firstSentence(lead string) string {
	lead = strings.TrimSpace(lead)
	if i := strings.IndexAny(lead, ".!?"); i >= 0 {
		return strings.ToLower(lead[:i+1])
	}
	return strings.ToLower(lead)
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = bytes.NewReader(b)
			}
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if contains(pendingStatuses, resp.StatusCode) {
				return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

func concurrentDecide(ctx context.Context, r *Runner, url string) Result {
	b, _ := json.Marshal(turn.Request{SessionID: newSession(), Query: benchQuery})
	wg := sync.WaitGroup{}
	ok, serverErr := 0, 0
	mu := sync.Mutex{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			mu.Lock()
			if resp.StatusCode == http.StatusOK {
				ok++
			} else if resp.StatusCode >= 500 {
				serverErr++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if serverErr > 0 || ok == 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("ok=%d 5xx=%d", ok, serverErr)}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("ok=%d", ok)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					if ctx.Err() != nil {
						return
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}
