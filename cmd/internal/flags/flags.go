package flags

import (
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"

	"github.com/quran-assets/assetsync/internal/logging"
)

func AddLogLevelFlag(fs *pflag.FlagSet, level *logging.Level) {
	fs.VarP(enumflag.New(level, "level", map[logging.Level][]string{
		logging.Debug: {"debug"},
		logging.Info:  {"info"},
		logging.Warn:  {"warn", "warning"},
		logging.Error: {"error"},
	}, enumflag.EnumCaseInsensitive), "log-level", "l", "log level: debug, info, warn, error")
}

func AddLogFormatFlag(fs *pflag.FlagSet, format *logging.Format) {
	fs.Var(enumflag.New(format, "format", map[logging.Format][]string{
		logging.FormatConsole: {"console", "text"},
		logging.FormatJSON:    {"json"},
	}, enumflag.EnumCaseInsensitive), "log-format", "log format: console, json")
}

func AddConfigFlag(fs *pflag.FlagSet, path *string) {
	fs.StringVarP(path, "config", "c", "", "path to the job configuration file (built-in jobs when empty)")
}

func AddRepoDirFlag(fs *pflag.FlagSet, dir *string) {
	fs.StringVarP(dir, "repo-dir", "C", ".", "root of the git working tree that receives the assets")
}
