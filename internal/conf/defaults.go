// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "imagedb")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/imagedb.log")
	viper.SetDefault("main.log.maxsize", 10485760)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "imagedb.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "imagedb")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "imagedb")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("blobstore.endpoint", "localhost:9000")
	viper.SetDefault("blobstore.accesskey", "minioadmin")
	viper.SetDefault("blobstore.secretkey", "minioadmin")
	viper.SetDefault("blobstore.usessl", false)
	viper.SetDefault("blobstore.timeout", 30)

	viper.SetDefault("ingest.uploadworkers", 4)
	viper.SetDefault("ingest.presentflag", "1")
}
