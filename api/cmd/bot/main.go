package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"hiring-bot/api/internal/config"
	"hiring-bot/api/internal/httpserver"
	"hiring-bot/api/internal/intake"
	"hiring-bot/api/internal/interview"
	"hiring-bot/api/internal/llm"
	"hiring-bot/api/internal/llm/gemini"
	"hiring-bot/api/internal/llm/openai"
	"hiring-bot/api/internal/session"
	"hiring-bot/api/internal/store"
	"hiring-bot/api/internal/telegram"
)

const turnTimeout = 2 * time.Minute

func main() {
	cfg := config.Load()

	fields, err := intake.LoadFields(cfg.FieldsFile)
	if err != nil {
		log.Fatalf("fields: %v", err)
	}

	// --- Engines ---
	var engines llm.Engines
	if cfg.GeminiAPIKey != "" {
		engines.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if cfg.OpenAIAPIKey != "" {
		engines.OpenAI = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	gen, err := engines.Pick(cfg.LLMEngine)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("llm engine: %s (%s)", gen.Name(), gen.GetModel())

	// --- Postgres (optional transcript archive) ---
	var (
		archive     session.Archive
		transcripts httpserver.TranscriptFinder
		ping        func(context.Context) error
	)
	if dsn := resolveDSN(); dsn != "" {
		db := openDB(dsn)
		repo := store.NewInterviewRepo(db)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("schema: %v", err)
		}
		cancel()
		archive = repo
		transcripts = repo
		ping = db.PingContext
		if cfg.TranscriptRetention > 0 {
			go runRetention(context.Background(), repo, cfg.TranscriptRetention, retentionEvery)
		}
	} else {
		log.Printf("no database configured: transcripts are kept in memory only")
	}

	retry := interview.RetryPolicy{Attempts: cfg.GenAttempts, Backoff: cfg.GenBackoff}
	ctrl := session.NewController(fields,
		interview.NewQuestioner(gen, cfg.QuestionCount, retry),
		interview.NewBridger(gen, retry))
	sessions := session.NewService(ctrl, archive, cfg.SessionCacheSize, cfg.SessionTTL)

	container := &httpserver.Container{
		Sessions:    sessions,
		Transcripts: transcripts,
		Ping:        ping,
		TurnTimeout: turnTimeout,
	}
	addr := "0.0.0.0:" + cfg.Port

	// --- Telegram bot (optional) ---
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		log.Printf("TELEGRAM_BOT_TOKEN not set: serving the HTTP API only")
		if err := httpserver.ListenAndServe(addr, httpserver.NewRouter(container)); err != nil {
			log.Fatal(err)
		}
		return
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false
	r := &telegram.Router{Bot: bot, Sessions: sessions, TurnTimeout: turnTimeout}
	d := telegram.NewDispatcher(r)

	// --- Choose mode: Webhook vs Polling ---
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(addr, bot, d, container, webhookURL)
	} else {
		startPollingMode(addr, bot, d, container)
	}
}

func openDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}
	// connection pool tune (нагрузка до ~20 rps)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}
	log.Printf("db connected: %s", safeDSNSummary(dsn))
	return db
}

// ---------------- Modes -----------------

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, d *telegram.Dispatcher, c *httpserver.Container, baseURL string) {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal(err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal(err)
	}

	c.WebhookPath = path
	c.Webhook = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			log.Printf("webhook: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		d.Dispatch(*upd)
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("webhook listening on %s%s", addr, path)
	if err := httpserver.ListenAndServe(addr, httpserver.NewRouter(c)); err != nil {
		log.Fatal(err)
	}
}

func startPollingMode(addr string, bot *tgbotapi.BotAPI, d *telegram.Dispatcher, c *httpserver.Container) {
	// Запускаем HTTP server (API + healthz)
	go func() {
		if err := httpserver.ListenAndServe(addr, httpserver.NewRouter(c)); err != nil {
			log.Fatal(err)
		}
	}()

	// Устойчивый поллинг с backoff без log.Fatal/os.Exit
	ctx := context.Background()
	runPolling(ctx, bot, d.Dispatch)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return 2 * time.Second
		}
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Printf("polling error: %v; retry in %v", err, d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// ---------------- Retention -----------------

const retentionEvery = time.Hour

type purger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// runRetention deletes archived transcripts older than age, once at start
// and then every tick, until ctx is done.
func runRetention(ctx context.Context, p purger, age, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if n, err := p.PurgeOlderThan(ctx, age); err != nil {
			log.Printf("retention: %v", err)
		} else if n > 0 {
			log.Printf("retention: purged %d transcripts older than %v", n, age)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// ---------------- Helpers -----------------

// resolveDSN returns "" when no database is configured.
func resolveDSN() string {
	// Prefer DATABASE_URL if provided
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	// Build DSN from POSTGRES_* / PG* env vars (single-container default)
	pass := os.Getenv("POSTGRES_PASSWORD")
	if pass == "" {
		return ""
	}
	user := getenvDefault("POSTGRES_USER", "hiring")
	host := getenvDefault("PGHOST", "db")
	port := getenvDefault("PGPORT", "5432")
	db := getenvDefault("POSTGRES_DB", "hiring")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	// 16-символный hex
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
