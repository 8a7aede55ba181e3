package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mikesmitty/movavg/pkg/movavg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "movavg",
	Short: "Smooth an integer sample stream with a fixed-window moving average",
	Long: `movavg reads integer samples from stdin, an MQTT topic or a sensor
(sht4x, max31865, tsl2591) and prints the moving average of the last
window-depth samples. Input and accumulator integer types are chosen with
--input-type and --accumulator-type; the accumulator must be wide enough to
hold window-depth samples of the input type.

Averages can also be published to MQTT as Home Assistant sensors.`,
	Run: movavg.Root(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.movavg.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or tint")
	rootCmd.PersistentFlags().Int("window-depth", movavg.DefaultWindowDepth, "number of most recent samples averaged")
	rootCmd.PersistentFlags().String("input-type", movavg.DefaultInputType, "integer type of the samples")
	rootCmd.PersistentFlags().String("accumulator-type", movavg.DefaultAccumulatorType, "integer type of the running sum, wider than input-type")
	rootCmd.PersistentFlags().String("source", movavg.SourceStdin, "sample source: stdin, mqtt, sht4x, max31865 or tsl2591")
	rootCmd.PersistentFlags().Float64("scale", 1, "multiplier turning sensor readings into integer samples")
	rootCmd.PersistentFlags().Duration("poll-interval", movavg.DefaultPollInterval, "sensor polling interval")
	rootCmd.PersistentFlags().String("i2cbus", "", "name of the i2c bus")
	rootCmd.PersistentFlags().String("spibus", "", "name of the spi bus")
	rootCmd.PersistentFlags().String("sht4x-field", "temperature", "sht4x reading to average: temperature, humidity or dewpoint")
	rootCmd.PersistentFlags().String("mqtt-broker", "", "mqtt broker url")
	rootCmd.PersistentFlags().String("mqtt-input-topic", "", "topic carrying samples when source is mqtt")
	rootCmd.PersistentFlags().Int("mqtt-sample-interval", 1, "publish one of every n readings")
	rootCmd.PersistentFlags().String("mqtt-sensor-type", "", "home assistant sensor type (default derived from source)")
	rootCmd.PersistentFlags().Duration("watchdog-timeout", 0, "exit when no sample arrives for this long (0 disables)")
	rootCmd.PersistentFlags().Int("stats-window", 0, "averages kept for spread and trend statistics (0 disables)")
	rootCmd.PersistentFlags().Int("stats-every", 1, "report statistics every n averages")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".movavg" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".movavg")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("movavg")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
