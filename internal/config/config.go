package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory holding the config file, the
	// log file and the metrics dump
	DatadirKey = "DATADIR"
	// NetworkKey is the bitcoin network revaultd runs on, one of bitcoin,
	// testnet, regtest, signet
	NetworkKey = "NETWORK"
	// SocketPathKey is the path of the revaultd JSON-RPC unix socket
	SocketPathKey = "SOCKET_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// RPCTimeoutKey bounds every call to revaultd
	RPCTimeoutKey = "RPC_TIMEOUT"
	// RPCRateLimitKey is the max number of calls per second to revaultd
	RPCRateLimitKey = "RPC_RATE_LIMIT"
	// SignerXprvKey is the extended private key of the hot signing device.
	// Signing is disabled if not set
	SignerXprvKey = "SIGNER_XPRV"
	// SigningTimeoutKey bounds every round-trip with the signing device
	SigningTimeoutKey = "SIGNING_TIMEOUT"
	// StatsIntervalKey defines interval for logging memory statistics, 0
	// disables them
	StatsIntervalKey = "STATS_INTERVAL"
	// EnableProfilerKey enables the dump of prometheus metrics at shutdown
	EnableProfilerKey = "ENABLE_PROFILER"

	ConfigFile = "revault-gui.toml"
	LogFile    = "revault-gui.log"
	StatsFile  = "stats"

	socketFile = "revaultd_rpc"
)

var (
	vip            *viper.Viper
	overrides      = map[string]interface{}{}
	defaultDatadir = btcutil.AppDataDir("revault", false)

	networks = map[string]*chaincfg.Params{
		"bitcoin": &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNet3Params,
		"regtest": &chaincfg.RegressionNetParams,
		"signet":  &chaincfg.SigNetParams,
	}
)

// Set overrides the value of key, taking precedence over environment and
// config file. It must be called before InitConfig.
func Set(key string, value interface{}) {
	overrides[key] = value
}

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("REVAULT")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(NetworkKey, "bitcoin")
	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(RPCTimeoutKey, 30*time.Second)
	vip.SetDefault(RPCRateLimitKey, 50)
	vip.SetDefault(SigningTimeoutKey, 2*time.Minute)
	vip.SetDefault(StatsIntervalKey, 0)
	vip.SetDefault(EnableProfilerKey, false)

	for key, value := range overrides {
		vip.Set(key, value)
	}

	if err := readConfigFile(); err != nil {
		return fmt.Errorf("error while reading config file: %s", err)
	}

	if !vip.IsSet(SocketPathKey) {
		vip.SetDefault(SocketPathKey, filepath.Join(
			GetDatadir(), GetString(NetworkKey), socketFile,
		))
	}

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetNetwork() *chaincfg.Params {
	return networks[strings.ToLower(GetString(NetworkKey))]
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

func readConfigFile() error {
	path := filepath.Join(GetDatadir(), ConfigFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	vip.SetConfigFile(path)
	return vip.ReadInConfig()
}

func validate() error {
	datadir := GetDatadir()
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if GetNetwork() == nil {
		return fmt.Errorf(
			"unknown network %s, must be one of bitcoin, testnet, regtest, signet",
			GetString(NetworkKey),
		)
	}

	if len(GetString(SocketPathKey)) <= 0 {
		return fmt.Errorf("missing revaultd socket path")
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf(
			"%s must be in range [%d, %d]",
			LogLevelKey, log.PanicLevel, log.TraceLevel,
		)
	}

	if GetInt(RPCRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", RPCRateLimitKey)
	}

	for _, key := range []string{RPCTimeoutKey, SigningTimeoutKey, StatsIntervalKey} {
		if GetDuration(key) < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetDatadir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
