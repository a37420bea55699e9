package main

import "time"

type Config struct {
	BufferSize                int           `env:"BUFFER_SIZE,required=true"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	OwnerID                   int64         `env:"OWNER_ID,required=true" validate:"gt=0"`
	BannedWordsPath           string        `env:"BANNED_WORDS_FILEPATH"`
	EventStreamPath           string        `env:"EVENT_STREAM_FILEPATH"`
	APIBaseURL                string        `env:"API_BASE_URL,required=true" validate:"url"`
	APITimeout                time.Duration `env:"API_TIMEOUT,default=10s"`
	MetricInterval            time.Duration `env:"METRIC_INTERVAL,required=true"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,required=true"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	DebugPort                 int           `env:"DEBUG_PORT,default=8080" validate:"gte=0,lte=65535"`
}
