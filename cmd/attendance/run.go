package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/app"
	"github.com/Spok95/classroom-attendance/internal/archive"
	"github.com/Spok95/classroom-attendance/internal/camera"
	"github.com/Spok95/classroom-attendance/internal/capture"
	"github.com/Spok95/classroom-attendance/internal/clock"
	"github.com/Spok95/classroom-attendance/internal/config"
	"github.com/Spok95/classroom-attendance/internal/corpus"
	"github.com/Spok95/classroom-attendance/internal/db"
	"github.com/Spok95/classroom-attendance/internal/export"
	"github.com/Spok95/classroom-attendance/internal/jobs"
	"github.com/Spok95/classroom-attendance/internal/ledger"
	"github.com/Spok95/classroom-attendance/internal/lifecycle"
	"github.com/Spok95/classroom-attendance/internal/logging"
	"github.com/Spok95/classroom-attendance/internal/observability"
	"github.com/Spok95/classroom-attendance/internal/recognizer"
	"github.com/Spok95/classroom-attendance/internal/scheduler"
	"github.com/Spok95/classroom-attendance/internal/tg"
	"github.com/Spok95/classroom-attendance/internal/timetable"
)

const enrollTimeout = 2 * time.Minute

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Запустить запись посещаемости",
	Long: `Загружает расписание и эталоны, затем во время уроков снимает кадры с камеры
и отмечает распознанных учеников. По SIGINT/SIGTERM журнал сохраняется один раз.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	f := runCmd.Flags()
	f.String(config.KeyKnownFaces, "known_faces", "Directory with <identity>/<image> reference photos")
	f.String(config.KeyRecognizerURL, "", "Base URL of the recognition service")
	f.Duration(config.KeyRecognizeTimeout, 10*time.Second, "Timeout of one camera read or recognition call")
	f.String(config.KeyUnknownLabel, capture.DefaultUnknownLabel, "Label the recognizer uses for faces it does not know")
	f.String(config.KeyCameraURL, "", "IP camera snapshot URL")
	f.String(config.KeyCameraDir, "", "Replay frames from a directory instead of a camera")
	f.Bool(config.KeyCameraLoop, false, "Loop the frame directory")
	f.Duration(config.KeySampleInterval, time.Second, "Pause between frames inside a period")
	f.Duration(config.KeyPollInterval, time.Minute, "Timetable check interval outside periods")
	f.Duration(config.KeyStopTimeout, 30*time.Second, "How long shutdown waits for the scheduler (0 = forever)")
	f.Duration(config.KeyHeartbeatInterval, time.Minute, "Heartbeat log interval (0 = off)")
	f.String(config.KeyMode, "continuous", "Run policy: continuous|single")
	f.String(config.KeyTargetPeriod, "", "Period that ends the run in single mode")
	f.String(config.KeyOnError, "stop", "Scheduler error policy: stop|continue")
	f.String(config.KeyHTTPAddr, ":8080", "Address for /healthz and /metrics (empty = off)")
	f.String(config.KeySentryDSN, "", "Sentry DSN")
	if err := v.BindPFlags(f); err != nil {
		panic("bind run flags: " + err.Error())
	}
}

func run(parent context.Context, cfg *config.Config) (err error) {
	if parent == nil {
		parent = context.Background()
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("логгер: %w", err)
	}
	defer lg.Closer()
	log := lg.Named("main")

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		log.Warn("sentry не инициализирован", zap.Error(err))
	}
	defer flushSentry()

	tt, err := timetable.Load(cfg.TimetablePath)
	if err != nil {
		return err
	}
	log.Info("расписание загружено", zap.String("file", cfg.TimetablePath), zap.Int("periods", tt.Len()))

	rec := recognizer.New(cfg.RecognizerURL, cfg.RecognizeTimeout)
	enrollCtx, cancelEnroll := context.WithTimeout(parent, enrollTimeout)
	_, err = corpus.Enroll(enrollCtx, cfg.KnownFacesDir, rec, lg.Named("corpus"))
	cancelEnroll()
	if err != nil {
		return err
	}

	src, err := openSource(cfg)
	if err != nil {
		return err
	}

	flushers := []lifecycle.Flusher{&export.CSVWriter{Path: cfg.OutputPath}}
	if cfg.DatabaseURL != "" {
		store, err := db.Open(parent, cfg.DatabaseURL)
		if err != nil {
			_ = src.Close()
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.Migrate(parent); err != nil {
			_ = src.Close()
			return err
		}
		flushers = append(flushers, &db.Sink{Store: store})
	}
	if cfg.S3.Enabled() {
		s3store, err := archive.NewS3Store(parent, archive.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			_ = src.Close()
			return err
		}
		flushers = append(flushers, &archive.FileArchiver{
			Store:    s3store,
			Path:     cfg.OutputPath,
			Prefix:   cfg.S3.Prefix,
			Location: cfg.Location,
			Logger:   lg.Named("archive"),
		})
	}

	var notifier *tg.Notifier
	if cfg.TelegramToken != "" {
		if notifier, err = tg.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, lg.Named("telegram")); err != nil {
			log.Warn("уведомления в Telegram отключены", zap.Error(err))
			notifier = nil
		}
	}

	led := ledger.New()
	clk := clock.Real{Location: cfg.Location}
	sess := &capture.Session{
		Source:       src,
		Recognizer:   rec,
		Ledger:       led,
		Clock:        clk,
		Interval:     cfg.SampleInterval,
		CallTimeout:  cfg.RecognizeTimeout,
		UnknownLabel: cfg.UnknownLabel,
		Logger:       lg.Named("capture"),
	}

	var ctrl *lifecycle.Controller
	opts := scheduler.Options{
		Timetable:    tt,
		Session:      sess,
		Clock:        clk,
		PollInterval: cfg.PollInterval,
		RunPolicy:    cfg.RunPolicy,
		TargetPeriod: cfg.TargetPeriod,
		ErrorPolicy:  cfg.ErrorPolicy,
		OnTerminal:   func() { ctrl.RequestStop() },
		Logger:       lg.Named("scheduler"),
	}
	if notifier != nil {
		opts.Notifier = notifier
	}
	sched, err := scheduler.New(opts)
	if err != nil {
		_ = src.Close()
		return err
	}

	ctrl = lifecycle.New(lifecycle.Config{
		Scheduler:   sched,
		Ledger:      led,
		Source:      src,
		Flushers:    flushers,
		StopTimeout: cfg.StopTimeout,
		Logger:      lg.Named("lifecycle"),
	})

	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()
	state := func() string { return sched.State().String() }
	if cfg.HTTPAddr != "" {
		app.StartHTTP(bgCtx, cfg.HTTPAddr, app.Health{State: state, Records: led.Len, Stopped: ctrl.Stopped()}, lg.Named("http"))
	}
	runner := jobs.New(bgCtx, lg.Named("jobs"))
	runner.Every(cfg.HeartbeatInterval, "heartbeat", jobs.Heartbeat(log, led, state))

	sigCtx, stopSignals := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	ctrl.Start(context.Background())
	defer ctrl.Guard()
	log.Info("запись посещаемости запущена",
		zap.Stringer("mode", cfg.RunPolicy),
		zap.String("output", cfg.OutputPath),
		zap.Int("sinks", len(flushers)),
	)

	select {
	case <-sigCtx.Done():
		log.Info("получен сигнал остановки")
	case <-ctrl.Stopped():
	}

	flushErr := ctrl.Shutdown(context.Background())
	schedErr := ctrl.Err()
	cancelBg()
	runner.Wait()

	if schedErr != nil {
		schedErr = fmt.Errorf("планировщик: %w", schedErr)
	}
	err = errors.Join(schedErr, flushErr)
	if notifier != nil {
		notifier.Shutdown(led.Len(), err)
	}
	if err != nil {
		return err
	}
	log.Info("работа завершена", zap.Int("records", led.Len()))
	return nil
}

func openSource(cfg *config.Config) (capture.FrameSource, error) {
	if cfg.CameraDir != "" {
		return camera.NewDirSource(cfg.CameraDir, cfg.CameraLoop)
	}
	return camera.NewSnapshotSource(cfg.CameraURL, cfg.RecognizeTimeout), nil
}
