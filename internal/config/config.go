package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	RiotAPIKey string

	// Region is the regional route (account/match APIs), Platform the platform
	// route (league API).
	Region   string
	Platform string

	SubjectName string
	SubjectTag  string

	// Daily cycle target time-of-day, in Location.
	DailyHour   int
	DailyMinute int
	Location    *time.Location

	RankedQueues     map[int]bool
	MinMatchDuration time.Duration

	// NarrativeOrder is the fallback order of backend identifiers.
	NarrativeOrder []string
	GroqAPIKey     string
	GroqModel      string
	OpenAIAPIKey   string
	OpenAIModel    string

	TelegramToken  string
	TelegramChatID int64

	AdminPort string
	DBPath    string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey:    getEnv("RIOT_API_KEY", ""),
		Region:        getEnv("RIOT_REGION", "americas"),
		Platform:      getEnv("RIOT_PLATFORM", "na1"),
		SubjectName:   getEnv("SUBJECT_NAME", ""),
		SubjectTag:    getEnv("SUBJECT_TAG", ""),
		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		GroqModel:     getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		AdminPort:     getEnv("ADMIN_PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "reporter.db"),
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}
	if cfg.SubjectName == "" || cfg.SubjectTag == "" {
		return nil, fmt.Errorf("SUBJECT_NAME and SUBJECT_TAG are required")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil || chatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required and must be numeric")
	}
	cfg.TelegramChatID = chatID

	cfg.DailyHour, cfg.DailyMinute, err = parseClock(getEnv("REPORT_TIME", "18:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIME: %w", err)
	}

	cfg.Location, err = time.LoadLocation(getEnv("REPORT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}

	cfg.RankedQueues, err = parseQueueSet(getEnv("RANKED_QUEUES", "420,440"))
	if err != nil {
		return nil, fmt.Errorf("invalid RANKED_QUEUES: %w", err)
	}

	minDur, err := strconv.Atoi(getEnv("MIN_MATCH_DURATION_SECONDS", "600"))
	if err != nil || minDur < 0 {
		return nil, fmt.Errorf("invalid MIN_MATCH_DURATION_SECONDS")
	}
	cfg.MinMatchDuration = time.Duration(minDur) * time.Second

	cfg.NarrativeOrder = splitList(getEnv("NARRATIVE_BACKENDS", "groq,openai"))

	logger.Info().
		Str("region", cfg.Region).
		Str("platform", cfg.Platform).
		Str("subject", cfg.SubjectName+"#"+cfg.SubjectTag).
		Str("report_time", fmt.Sprintf("%02d:%02d", cfg.DailyHour, cfg.DailyMinute)).
		Str("timezone", cfg.Location.String()).
		Strs("narrative_backends", cfg.NarrativeOrder).
		Dur("min_match_duration", cfg.MinMatchDuration).
		Str("db_path", cfg.DBPath).
		Msg("configuration loaded")

	return cfg, nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute in %q", s)
	}
	return hour, minute, nil
}

func parseQueueSet(s string) (map[int]bool, error) {
	queues := make(map[int]bool)
	for _, part := range splitList(s) {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad queue id %q", part)
		}
		queues[id] = true
	}
	if len(queues) == 0 {
		return nil, fmt.Errorf("at least one queue id is required")
	}
	return queues, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
