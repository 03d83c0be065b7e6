package cmdutil

import "github.com/spf13/pflag"

// PersistentFlags defines the flags shared by every command
func PersistentFlags(flags *pflag.FlagSet) {
	flags.String("metrics-bind", "", "serve prometheus metrics on this address, e.g. :9090")
	flags.String("pyroscope-server", "", "push continuous profiles to this pyroscope server")
	flags.String("db-driver", "", "database driver for fit results: mysql or sqlite3")
	flags.String("db-dsn", "", "database dsn for fit results")
}
