package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "build-optimizer"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outFlagName            = "out"
	sourceMapFlagName      = "source-map"
	strictFlagName         = "strict"
	sideEffectFreeFlagName = "side-effect-free"
	coreFlagName           = "core"
	outDirFlagName         = "out-dir"
	runParallelFlagName    = "parallel"
	runAllFlagName         = "all"
	reportFlagName         = "report"
	logFileFlagName        = "log-file"
	verboseFlagName        = "verbose"

	runParallelConfigKey = "run.parallel"
	runAllConfigKey      = "run.all"
	runOutDirConfigKey   = "run.out_dir"
	runReportConfigKey   = "run.report"
	strictConfigKey      = "optimize.strict"
	sourceMapConfigKey   = "optimize.source_map"

	defaultRunParallel = 4
	defaultRunAll      = false
	defaultStrict      = false
	defaultSourceMap   = false

	envPrefix = "BUILD_OPTIMIZER"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".build-optimizer.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

// configErr holds a config file that exists but could not be read. It is
// reported once the logger is up.
var configErr error

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(runAllConfigKey, defaultRunAll)
	viper.SetDefault(runOutDirConfigKey, "")
	viper.SetDefault(runReportConfigKey, "")
	viper.SetDefault(strictConfigKey, defaultStrict)
	viper.SetDefault(sourceMapConfigKey, defaultSourceMap)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	configErr = readConfig()
}

// readConfig loads the config file. A missing file is not an error.
func readConfig() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted too (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs a rotating file logger as the slog default.
// It logs at the configured level, or Debug when verbose is set.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	if configErr != nil {
		slog.Warn("ignoring unreadable config file", "file", viper.ConfigFileUsed(), "error", configErr)
	}
}
