package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/Spok95/classroom-attendance/internal/capture"
	"github.com/Spok95/classroom-attendance/internal/scheduler"
)

// EnvPrefix: префикс переменных окружения (ATTENDANCE_OUTPUT и т.д.).
const EnvPrefix = "ATTENDANCE"

// Ключи настроек. Совпадают с именами флагов cobra.
const (
	KeyTimetable         = "timetable"
	KeyKnownFaces        = "known-faces"
	KeyOutput            = "output"
	KeyTZ                = "tz"
	KeyLogLevel          = "log-level"
	KeyEnv               = "env"
	KeySentryDSN         = "sentry-dsn"
	KeyHTTPAddr          = "http-addr"
	KeyRecognizerURL     = "recognizer-url"
	KeyRecognizeTimeout  = "recognize-timeout"
	KeyUnknownLabel      = "unknown-label"
	KeyCameraURL         = "camera-url"
	KeyCameraDir         = "camera-dir"
	KeyCameraLoop        = "camera-loop"
	KeySampleInterval    = "sample-interval"
	KeyPollInterval      = "poll-interval"
	KeyStopTimeout       = "stop-timeout"
	KeyMode              = "mode"
	KeyTargetPeriod      = "target-period"
	KeyOnError           = "on-error"
	KeyDatabaseURL       = "database-url"
	KeyTelegramToken     = "telegram-token"
	KeyTelegramChatID    = "telegram-chat-id"
	KeyS3Bucket          = "s3-bucket"
	KeyS3Region          = "s3-region"
	KeyS3Endpoint        = "s3-endpoint"
	KeyS3Prefix          = "s3-prefix"
	KeyS3PathStyle       = "s3-path-style"
	KeyS3AccessKey       = "s3-access-key"
	KeyS3SecretKey       = "s3-secret-key"
	KeyHeartbeatInterval = "heartbeat-interval"
)

type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
	AccessKey string
	SecretKey string
}

func (s S3) Enabled() bool { return s.Bucket != "" }

type Config struct {
	TimetablePath  string
	KnownFacesDir  string
	OutputPath     string
	Location       *time.Location
	LogLevel       string
	Env            string // dev|prod
	SentryDSN      string
	HTTPAddr       string // пусто: HTTP не поднимаем
	DatabaseURL    string // пусто: без зеркала в БД
	TelegramToken  string
	TelegramChatID int64

	RecognizerURL    string
	RecognizeTimeout time.Duration
	// UnknownLabel: метка, которой распознаватель помечает чужие лица.
	UnknownLabel string

	CameraURL  string
	CameraDir  string
	CameraLoop bool

	SampleInterval    time.Duration
	PollInterval      time.Duration
	StopTimeout       time.Duration
	HeartbeatInterval time.Duration

	RunPolicy    scheduler.RunPolicy
	TargetPeriod string
	ErrorPolicy  scheduler.ErrorPolicy

	S3 S3
}

// SetDefaults регистрирует значения по умолчанию и привязку к окружению.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTimetable, "timetable.csv")
	v.SetDefault(KeyKnownFaces, "known_faces")
	v.SetDefault(KeyOutput, "attendance.csv")
	v.SetDefault(KeyTZ, "Europe/Moscow")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyEnv, "dev")
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyRecognizeTimeout, 10*time.Second)
	v.SetDefault(KeyUnknownLabel, capture.DefaultUnknownLabel)
	v.SetDefault(KeySampleInterval, time.Second)
	v.SetDefault(KeyPollInterval, time.Minute)
	v.SetDefault(KeyStopTimeout, 30*time.Second)
	v.SetDefault(KeyHeartbeatInterval, time.Minute)
	v.SetDefault(KeyMode, scheduler.RunContinuous.String())
	v.SetDefault(KeyOnError, scheduler.StopOnError.String())
	v.SetDefault(KeyS3Prefix, "attendance")
}

// Load собирает и проверяет конфигурацию. Все ошибки возвращаются разом.
func Load(v *viper.Viper) (*Config, error) {
	var errs []error
	fail := func(key string, err error) { errs = append(errs, fmt.Errorf("%s: %w", key, err)) }

	cfg := &Config{
		TimetablePath:  strings.TrimSpace(v.GetString(KeyTimetable)),
		KnownFacesDir:  strings.TrimSpace(v.GetString(KeyKnownFaces)),
		OutputPath:     strings.TrimSpace(v.GetString(KeyOutput)),
		LogLevel:       v.GetString(KeyLogLevel),
		Env:            v.GetString(KeyEnv),
		SentryDSN:      v.GetString(KeySentryDSN),
		HTTPAddr:       v.GetString(KeyHTTPAddr),
		DatabaseURL:    strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		TelegramToken:  strings.TrimSpace(v.GetString(KeyTelegramToken)),
		TelegramChatID: v.GetInt64(KeyTelegramChatID),
		RecognizerURL:  strings.TrimRight(strings.TrimSpace(v.GetString(KeyRecognizerURL)), "/"),
		UnknownLabel:   strings.TrimSpace(v.GetString(KeyUnknownLabel)),
		CameraURL:      strings.TrimSpace(v.GetString(KeyCameraURL)),
		CameraDir:      strings.TrimSpace(v.GetString(KeyCameraDir)),
		CameraLoop:     v.GetBool(KeyCameraLoop),
		TargetPeriod:   strings.TrimSpace(v.GetString(KeyTargetPeriod)),
		S3: S3{
			Bucket:    strings.TrimSpace(v.GetString(KeyS3Bucket)),
			Region:    v.GetString(KeyS3Region),
			Endpoint:  v.GetString(KeyS3Endpoint),
			Prefix:    strings.Trim(v.GetString(KeyS3Prefix), "/"),
			PathStyle: v.GetBool(KeyS3PathStyle),
			AccessKey: v.GetString(KeyS3AccessKey),
			SecretKey: v.GetString(KeyS3SecretKey),
		},
	}

	loc, err := time.LoadLocation(v.GetString(KeyTZ))
	if err != nil {
		fail(KeyTZ, err)
		loc = time.Local
	}
	cfg.Location = loc

	durations := []struct {
		key string
		dst *time.Duration
		min time.Duration
	}{
		{KeyRecognizeTimeout, &cfg.RecognizeTimeout, time.Millisecond},
		{KeySampleInterval, &cfg.SampleInterval, time.Millisecond},
		{KeyPollInterval, &cfg.PollInterval, time.Millisecond},
		{KeyStopTimeout, &cfg.StopTimeout, 0},
		{KeyHeartbeatInterval, &cfg.HeartbeatInterval, 0},
	}
	for _, d := range durations {
		*d.dst = v.GetDuration(d.key)
		if *d.dst < d.min {
			fail(d.key, fmt.Errorf("должно быть не меньше %s", d.min))
		}
	}

	if cfg.RunPolicy, err = scheduler.ParseRunPolicy(v.GetString(KeyMode)); err != nil {
		fail(KeyMode, err)
	}
	if cfg.ErrorPolicy, err = scheduler.ParseErrorPolicy(v.GetString(KeyOnError)); err != nil {
		fail(KeyOnError, err)
	}
	if cfg.RunPolicy == scheduler.RunSinglePeriod && cfg.TargetPeriod == "" {
		fail(KeyTargetPeriod, errors.New("обязателен в режиме single"))
	}

	if cfg.TimetablePath == "" {
		fail(KeyTimetable, errors.New("не задан"))
	}
	if cfg.KnownFacesDir == "" {
		fail(KeyKnownFaces, errors.New("не задан"))
	}
	if cfg.OutputPath == "" {
		fail(KeyOutput, errors.New("не задан"))
	}
	if cfg.RecognizerURL == "" {
		fail(KeyRecognizerURL, errors.New("не задан"))
	}
	switch {
	case cfg.CameraURL == "" && cfg.CameraDir == "":
		fail(KeyCameraURL, fmt.Errorf("нужен %s или %s", KeyCameraURL, KeyCameraDir))
	case cfg.CameraURL != "" && cfg.CameraDir != "":
		fail(KeyCameraURL, fmt.Errorf("%s и %s взаимоисключающие", KeyCameraURL, KeyCameraDir))
	}
	if (cfg.TelegramToken == "") != (cfg.TelegramChatID == 0) {
		fail(KeyTelegramChatID, fmt.Errorf("%s и %s задаются вместе", KeyTelegramToken, KeyTelegramChatID))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("конфигурация: %w", errors.Join(errs...))
	}
	return cfg, nil
}
