package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/D00Movenok/GeoMap/internal/api"
	"github.com/D00Movenok/GeoMap/internal/app"
	"github.com/D00Movenok/GeoMap/internal/common"
)

var (
	configFile = pflag.StringP("config", "c", "config.yml", "Path to the config file in YAML format")
	verbose    = pflag.BoolP("verbose", "v", false, "Verbose logging")
)

func main() {
	pflag.Parse()

	initLogger()
	setLogLevel()
	parseConfig()

	cfg := parseAppConfig()
	a := createApp(cfg)
	defer a.Close()

	s := runServer(a, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go a.Load(ctx)
	<-ctx.Done()
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	shutdownServer(ctx, s)

	log.Info().Msg("Shutdown successful")
}

func initLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

func setLogLevel() {
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func parseConfig() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	viper.SetDefault("storage.path", "storage")
	viper.SetDefault("geocoder.interval", "1s")
	viper.SetDefault("geocoder.timeout", "10s")
	viper.SetDefault("index.concurrency", 3) //nolint:gomnd
	viper.SetDefault("server.listen", "127.0.0.1:8080")

	viper.SetEnvPrefix("geomap")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(*configFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Msg("Error reading config from yaml")
	}
}

func parseAppConfig() *common.Config {
	cfg := new(common.Config)
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatal().Err(err).Msg("Error parsing config from file")
	}
	return cfg
}

func createApp(cfg *common.Config) *app.App {
	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating app")
	}
	return a
}

func runServer(a *app.App, cfg *common.Config) *api.Server {
	s := api.NewServer(a, cfg.Server.Listen)
	if err := s.Start(); err != nil {
		log.Fatal().Err(err).Msg("Error starting api server")
	}
	return s
}

func shutdownServer(ctx context.Context, s *api.Server) {
	log.Info().Msg("Shutting down api server")
	if err := s.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down api server")
	}
}
