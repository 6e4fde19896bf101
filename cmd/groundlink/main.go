// Command groundlink simulates a satellite-to-ground radio link end to
// end. Modes:
//
//	groundlink transmit   one message through the full pipeline
//	groundlink pass       a complete overflight, one transmission per sample
//	groundlink downlink   replay a message sequence as a live feed
//	groundlink archive    query the mission archive
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/orbiterzero/groundlink/internal/archive"
	"github.com/orbiterzero/groundlink/internal/channel"
	"github.com/orbiterzero/groundlink/internal/fec"
	"github.com/orbiterzero/groundlink/internal/logging"
	"github.com/orbiterzero/groundlink/internal/packet"
	"github.com/orbiterzero/groundlink/internal/pass"
	"github.com/orbiterzero/groundlink/internal/pipeline"
	"github.com/orbiterzero/groundlink/internal/telemetry"
)

func main() {
	const configPath = "config.json"

	mode := "transmit"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		mode = args[0]
		args = args[1:]
	}

	persistentCfg, err := loadOrCreateConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg, err := parseConfig(args, os.LookupEnv, persistentCfg)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	if err := saveConfig(configPath, persistentFromCLI(cfg)); err != nil {
		log.Fatalf("save config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	format, err := logging.ParseFormat(cfg.logFormat)
	if err != nil {
		log.Fatalf("log format: %v", err)
	}
	logger := logging.New(level, format, os.Stderr)
	logging.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ar, err := archive.Open(cfg.dbPath)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer ar.Close()

	var reporters telemetry.MultiReporter
	var metrics *telemetry.Metrics
	if cfg.webAddr != "" {
		hub := telemetry.NewHub(cfg.historyLimit)
		metrics, err = telemetry.NewMetrics(nil)
		if err != nil {
			log.Fatalf("init metrics: %v", err)
		}
		reporters = append(reporters, hub)
		go telemetry.NewWebServer(cfg.webAddr, hub, metrics, logger).Start(ctx)
		logger.Info("telemetry web interface up", logging.F("addr", cfg.webAddr))
	} else {
		reporters = append(reporters, telemetry.StdoutReporter{Logger: logger})
	}

	sim := pipeline.NewSimulator(logger, reporters, metrics)
	params, err := buildParams(cfg)
	if err != nil {
		log.Fatalf("build parameters: %v", err)
	}

	switch mode {
	case "transmit":
		err = runTransmit(ctx, sim, ar, params, logger)
	case "pass":
		err = runPass(ctx, sim, ar, params, cfg, logger)
	case "downlink":
		err = runDownlink(ctx, sim, ar, params, cfg, logger)
	case "archive":
		err = runArchive(ctx, ar, cfg, logger)
	default:
		log.Fatalf("unknown mode %q (want transmit, pass, downlink, or archive)", mode)
	}
	if err != nil && err != context.Canceled {
		log.Fatalf("%s: %v", mode, err)
	}
}

func runTransmit(ctx context.Context, sim *pipeline.Simulator, ar *archive.Archive, params pipeline.Params, logger logging.Logger) error {
	res, err := sim.Simulate(params)
	if err != nil {
		return err
	}
	printResult(res)
	id, err := saveWithRetry(ctx, ar, res.ArchiveRecord(params))
	if err != nil {
		logger.Error("archive write failed, result not persisted", logging.F("err", err))
		return nil
	}
	logger.Info("mission archived", logging.F("id", id))
	return nil
}

func runPass(ctx context.Context, sim *pipeline.Simulator, ar *archive.Archive, params pipeline.Params, cfg cliConfig, logger logging.Logger) error {
	pp := pipeline.PassParams{
		Pass: pass.Pass{
			Start:        time.Now(),
			Duration:     time.Duration(cfg.passDurationSec * float64(time.Second)),
			MaxElevation: cfg.maxElevationDeg,
		},
		MinSNRdB:      cfg.passMinSNRdB,
		MaxSNRdB:      cfg.passMaxSNRdB,
		Transmissions: cfg.passTransmissions,
	}
	res, err := sim.SimulatePass(params, pp)
	if err != nil {
		return err
	}
	fmt.Printf("pass complete: %d/%d messages delivered, avg BER %.4f, avg SNR %.1f dB\n",
		res.Delivered, len(res.Transmissions), res.AverageBER, res.AverageSNRdB)
	id, err := saveWithRetry(ctx, ar, res.ArchiveRecord(params, pp))
	if err != nil {
		logger.Error("archive write failed, result not persisted", logging.F("err", err))
		return nil
	}
	logger.Info("pass archived", logging.F("id", id))
	return nil
}

func runDownlink(ctx context.Context, sim *pipeline.Simulator, ar *archive.Archive, params pipeline.Params, cfg cliConfig, logger logging.Logger) error {
	messages := splitMessages(cfg.downlinkMessages)
	if len(messages) == 0 {
		messages = []string{params.Message}
	}
	dl := pipeline.NewDownlink(sim, params, messages)
	interval := time.Duration(cfg.downlinkIntervalSec * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("downlink started",
		logging.F("messages", len(messages)),
		logging.F("interval_sec", interval.Seconds()))
	for {
		res, ok, err := dl.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("downlink complete")
			return nil
		}
		printResult(res)
		if _, err := saveWithRetry(ctx, ar, res.ArchiveRecord(params)); err != nil {
			logger.Error("archive write failed, result not persisted", logging.F("err", err))
		}
		if dl.Remaining() == 0 {
			logger.Info("downlink complete")
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func runArchive(ctx context.Context, ar *archive.Archive, cfg cliConfig, logger logging.Logger) error {
	filter := archive.Filter{Limit: cfg.archiveLimit}
	records, err := ar.QueryMissions(ctx, filter)
	if err != nil {
		return err
	}
	for _, rec := range records {
		status := "ok"
		if rec.PacketsCorrupted > 0 {
			status = "corrupted"
		}
		fmt.Printf("#%d  %s  %-9s  BER %.4f  SNR %5.1f dB  %q -> %q\n",
			rec.ID, rec.Timestamp.Format(time.RFC3339), status,
			rec.BER, rec.SNRdB, rec.MessageSent, rec.MessageReceived)
	}
	stats, err := ar.Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("total %d missions, avg BER %.4f, avg SNR %.1f dB, packet error rate %.2f\n",
		stats.TotalMissions, stats.AverageBER, stats.AverageSNRdB, stats.PacketErrorRate)
	return nil
}

// saveWithRetry writes the record with exponential backoff so a transient
// database hiccup does not drop the mission.
func saveWithRetry(ctx context.Context, ar *archive.Archive, rec archive.Record) (int64, error) {
	var id int64
	op := func() error {
		var err error
		id, err = ar.SaveMission(ctx, rec)
		return err
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return 0, err
	}
	return id, nil
}

func printResult(res pipeline.Result) {
	status := "DELIVERED"
	if !res.Match {
		status = "DEGRADED"
	}
	fmt.Printf("[%s] %q -> %q  BER %.4f  SNR %.1f dB  packet valid: %v\n",
		status, res.MessageSent, res.MessageReceived, res.BER, res.SNRMeasuredDB, res.PacketValid)
	for _, ev := range res.Anomalies {
		fmt.Printf("  anomaly: %s\n", ev)
	}
}

func splitMessages(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildParams converts the flat CLI config into pipeline parameters,
// generating fade events over the expected signal duration when asked.
func buildParams(cfg cliConfig) (pipeline.Params, error) {
	fecMode, err := fec.ParseMode(cfg.fecMode)
	if err != nil {
		return pipeline.Params{}, err
	}
	params := pipeline.Params{
		Message:           cfg.message,
		CarrierFreqHz:     cfg.carrierFreqHz,
		SampleRateHz:      cfg.sampleRateHz,
		SamplesPerSymbol:  cfg.samplesPerSymbol,
		SNRdB:             cfg.snrDB,
		DistanceKm:        cfg.distanceKm,
		AtmosphericLossDB: cfg.atmoLossDB,
		FEC:               fecMode,
		Seed:              cfg.seed,
	}
	if cfg.fadeCount > 0 {
		profile, ok := channel.ParseFadeProfile(cfg.fadeProfile)
		if !ok {
			return pipeline.Params{}, fmt.Errorf("unknown fade profile %q", cfg.fadeProfile)
		}
		frameBits := (len(cfg.message) + 14) * 8
		txBits := fec.EncodedLen(fecMode, frameBits)
		durationSec := float64(txBits*cfg.samplesPerSymbol) / cfg.sampleRateHz
		seed := int64(cfg.seed)
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		params.Fades = channel.GenerateFades(durationSec, cfg.fadeCount, profile, rng)
	}
	if cfg.corruptMode != "" {
		m, err := packet.ParseCorruptionMode(cfg.corruptMode)
		if err != nil {
			return pipeline.Params{}, err
		}
		params.Corrupt = &pipeline.CorruptSpec{Mode: m, Amount: cfg.corruptAmount}
	}
	return params, nil
}

type cliConfig struct {
	message          string
	carrierFreqHz    float64
	sampleRateHz     float64
	samplesPerSymbol int
	snrDB            float64
	distanceKm       float64
	atmoLossDB       float64
	fecMode          string
	fadeCount        int
	fadeProfile      string
	corruptMode      string
	corruptAmount    float64
	seed             uint64

	passDurationSec   float64
	maxElevationDeg   float64
	passMinSNRdB      float64
	passMaxSNRdB      float64
	passTransmissions int

	downlinkMessages    string
	downlinkIntervalSec float64

	archiveLimit int

	dbPath       string
	webAddr      string
	historyLimit int
	logLevel     string
	logFormat    string
}

type persistentConfig struct {
	Message          string  `json:"message"`
	CarrierFreqHz    float64 `json:"carrier_freq_hz"`
	SampleRateHz     float64 `json:"sample_rate_hz"`
	SamplesPerSymbol int     `json:"samples_per_symbol"`
	SNRdB            float64 `json:"snr_db"`
	DistanceKm       float64 `json:"distance_km"`
	AtmoLossDB       float64 `json:"atmospheric_loss_db"`
	FECMode          string  `json:"fec_mode"`
	FadeCount        int     `json:"fade_count"`
	FadeProfile      string  `json:"fade_profile"`

	PassDurationSec   float64 `json:"pass_duration_sec"`
	MaxElevationDeg   float64 `json:"max_elevation_deg"`
	PassMinSNRdB      float64 `json:"pass_min_snr_db"`
	PassMaxSNRdB      float64 `json:"pass_max_snr_db"`
	PassTransmissions int     `json:"pass_transmissions"`

	DownlinkIntervalSec float64 `json:"downlink_interval_sec"`

	DBPath       string `json:"db_path"`
	WebAddr      string `json:"web_addr"`
	HistoryLimit int    `json:"history_limit"`
	LogLevel     string `json:"log_level"`
	LogFormat    string `json:"log_format"`
}

func parseConfig(args []string, lookup func(string) (string, bool), defaults persistentConfig) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("groundlink", flag.ContinueOnError)
	fs.StringVar(&cfg.message, "message", envString(lookup, "GL_MESSAGE", defaults.Message), "Message to transmit")
	fs.Float64Var(&cfg.carrierFreqHz, "carrier-freq", envFloat(lookup, "GL_CARRIER_FREQ", defaults.CarrierFreqHz), "Carrier frequency in Hz")
	fs.Float64Var(&cfg.sampleRateHz, "sample-rate", envFloat(lookup, "GL_SAMPLE_RATE", defaults.SampleRateHz), "Sample rate in Hz")
	fs.IntVar(&cfg.samplesPerSymbol, "samples-per-symbol", envInt(lookup, "GL_SAMPLES_PER_SYMBOL", defaults.SamplesPerSymbol), "Samples per BPSK symbol")
	fs.Float64Var(&cfg.snrDB, "snr", envFloat(lookup, "GL_SNR", defaults.SNRdB), "Channel SNR in dB")
	fs.Float64Var(&cfg.distanceKm, "distance", envFloat(lookup, "GL_DISTANCE", defaults.DistanceKm), "Slant range in km")
	fs.Float64Var(&cfg.atmoLossDB, "atmo-loss", envFloat(lookup, "GL_ATMO_LOSS", defaults.AtmoLossDB), "Atmospheric loss in dB")
	fs.StringVar(&cfg.fecMode, "fec", envString(lookup, "GL_FEC", defaults.FECMode), "FEC mode (none|parity|hamming74)")
	fs.IntVar(&cfg.fadeCount, "fades", envInt(lookup, "GL_FADES", defaults.FadeCount), "Number of random fade events (0 disables)")
	fs.StringVar(&cfg.fadeProfile, "fade-profile", envString(lookup, "GL_FADE_PROFILE", defaults.FadeProfile), "Fade profile (shallow|deep|mixed)")
	fs.StringVar(&cfg.corruptMode, "corrupt", "", "Deliberate frame corruption mode (bit_flip|byte_drop|burst)")
	fs.Float64Var(&cfg.corruptAmount, "corrupt-amount", 0.01, "Corruption amount (rate for bitflip, count for bytedrop, run length for burst)")
	fs.Uint64Var(&cfg.seed, "seed", 0, "Random seed (0 = time-based)")

	fs.Float64Var(&cfg.passDurationSec, "pass-duration", envFloat(lookup, "GL_PASS_DURATION", defaults.PassDurationSec), "Pass duration in seconds")
	fs.Float64Var(&cfg.maxElevationDeg, "max-elevation", envFloat(lookup, "GL_MAX_ELEVATION", defaults.MaxElevationDeg), "Peak elevation in degrees")
	fs.Float64Var(&cfg.passMinSNRdB, "pass-min-snr", envFloat(lookup, "GL_PASS_MIN_SNR", defaults.PassMinSNRdB), "SNR at the horizon in dB")
	fs.Float64Var(&cfg.passMaxSNRdB, "pass-max-snr", envFloat(lookup, "GL_PASS_MAX_SNR", defaults.PassMaxSNRdB), "SNR at peak elevation in dB")
	fs.IntVar(&cfg.passTransmissions, "pass-transmissions", envInt(lookup, "GL_PASS_TRANSMISSIONS", defaults.PassTransmissions), "Transmissions per pass")

	fs.StringVar(&cfg.downlinkMessages, "downlink-messages", "", "Messages for downlink mode, separated by |")
	fs.Float64Var(&cfg.downlinkIntervalSec, "downlink-interval", envFloat(lookup, "GL_DOWNLINK_INTERVAL", defaults.DownlinkIntervalSec), "Seconds between downlink transmissions")

	fs.IntVar(&cfg.archiveLimit, "limit", 20, "Maximum records to list in archive mode")

	fs.StringVar(&cfg.dbPath, "db", envString(lookup, "GL_DB", defaults.DBPath), "Mission archive database path")
	fs.StringVar(&cfg.webAddr, "web-addr", envString(lookup, "GL_WEB_ADDR", defaults.WebAddr), "Optional telemetry listen address (e.g. :8080)")
	fs.IntVar(&cfg.historyLimit, "history-limit", envInt(lookup, "GL_HISTORY_LIMIT", defaults.HistoryLimit), "Maximum samples in telemetry history")
	fs.StringVar(&cfg.logLevel, "log-level", envString(lookup, "GL_LOG_LEVEL", defaults.LogLevel), "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.logFormat, "log-format", envString(lookup, "GL_LOG_FORMAT", defaults.LogFormat), "Log format (text|json)")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}

func persistentFromCLI(cfg cliConfig) persistentConfig {
	return persistentConfig{
		Message:             cfg.message,
		CarrierFreqHz:       cfg.carrierFreqHz,
		SampleRateHz:        cfg.sampleRateHz,
		SamplesPerSymbol:    cfg.samplesPerSymbol,
		SNRdB:               cfg.snrDB,
		DistanceKm:          cfg.distanceKm,
		AtmoLossDB:          cfg.atmoLossDB,
		FECMode:             cfg.fecMode,
		FadeCount:           cfg.fadeCount,
		FadeProfile:         cfg.fadeProfile,
		PassDurationSec:     cfg.passDurationSec,
		MaxElevationDeg:     cfg.maxElevationDeg,
		PassMinSNRdB:        cfg.passMinSNRdB,
		PassMaxSNRdB:        cfg.passMaxSNRdB,
		PassTransmissions:   cfg.passTransmissions,
		DownlinkIntervalSec: cfg.downlinkIntervalSec,
		DBPath:              cfg.dbPath,
		WebAddr:             cfg.webAddr,
		HistoryLimit:        cfg.historyLimit,
		LogLevel:            cfg.logLevel,
		LogFormat:           cfg.logFormat,
	}
}

func loadOrCreateConfig(path string) (persistentConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultPersistentConfig()
			if saveErr := saveConfig(path, cfg); saveErr != nil {
				return persistentConfig{}, saveErr
			}
			return cfg, nil
		}
		return persistentConfig{}, err
	}
	defer f.Close()

	var cfg persistentConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return persistentConfig{}, err
	}
	return cfg, nil
}

func saveConfig(path string, cfg persistentConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func defaultPersistentConfig() persistentConfig {
	return persistentConfig{
		Message:             "HELLO FROM ORBIT",
		CarrierFreqHz:       100,
		SampleRateHz:        1000,
		SamplesPerSymbol:    10,
		SNRdB:               15,
		DistanceKm:          1500,
		AtmoLossDB:          1,
		FECMode:             "hamming74",
		FadeCount:           0,
		FadeProfile:         "mixed",
		PassDurationSec:     600,
		MaxElevationDeg:     45,
		PassMinSNRdB:        2,
		PassMaxSNRdB:        20,
		PassTransmissions:   10,
		DownlinkIntervalSec: 1,
		DBPath:              "missions.db",
		WebAddr:             "",
		HistoryLimit:        500,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

func envFloat(lookup func(string) (string, bool), key string, def float64) float64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}
