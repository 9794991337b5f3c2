// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "FloraVision")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "floravision.log")

	viper.SetDefault("ensemble.maxresults", 5)
	viper.SetDefault("ensemble.minconfidence", 0.0)
	viper.SetDefault("ensemble.threads", 0)
	viper.SetDefault("ensemble.classifiers", []map[string]any{})

	viper.SetDefault("expert.defaultid", 1050)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.maxuploadsize", 32<<20)
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "webui.log")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "tests.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "floravision")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "floravision")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
