package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloud66-oss/ipgeo/utils"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ipgeo",
	Short: "ipgeo resolves IP addresses into geolocation records",

	// main prints the error
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = utils.Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/ipgeo.yml)")
	rootCmd.PersistentFlags().String("level", "info", "log level")
	rootCmd.PersistentFlags().String("log-format", "json", "log format: json or text")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
}

func configureLogging(_ context.Context) error {
	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q", viper.GetString("log.level"))
	}

	switch viper.GetString("log.format") {
	case "text":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	default:
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(level)
	if level == zerolog.TraceLevel {
		log.Logger = log.With().Caller().Logger()
	}

	return nil
}

// Execute runs the command line. Errors are returned to main, which reports
// them after flushing sentry.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Printf("home directory not found %s\n", err.Error())
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/app")
		viper.SetConfigName("ipgeo")
	}

	replacer := strings.NewReplacer("-", "_", ".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("IPGEO")
	viper.AutomaticEnv()

	configRead := viper.ReadInConfig() == nil

	ctx := context.Background()
	if err := configureLogging(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if configRead {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}

	// sentry.dsn or IPGEO_SENTRY_DSN
	if dsn := viper.GetString("sentry.dsn"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Release: utils.Version}); err != nil {
			log.Warn().Err(err).Msg("failed to initialize Sentry")
		} else {
			log.Info().Msg("Sentry error tracking enabled")
		}
	}

	if !configRead {
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("reloading config")
		if err := configureLogging(context.Background()); err != nil {
			log.Error().Err(err).Msg("keeping previous logging configuration")
		}
	})
	viper.WatchConfig()
}
