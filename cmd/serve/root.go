package serve

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	cmdUtil "github.com/ValentinKolb/routeipc/cmd/util"
	"github.com/ValentinKolb/routeipc/ipc/common"
	"github.com/ValentinKolb/routeipc/ipc/registry"
	"github.com/ValentinKolb/routeipc/ipc/serializer"
	"github.com/ValentinKolb/routeipc/ipc/server"
	"github.com/ValentinKolb/routeipc/ipc/transport"
	"github.com/ValentinKolb/routeipc/ipc/transport/tcp"
	"github.com/ValentinKolb/routeipc/ipc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start a standalone IPC server",
		Long:    `Start a standalone IPC server with a set of built-in diagnostic routes (ping, echo, info and the multicast audit route). The configuration can be set via command line flags or environment variables. The format of the environment variables is IPC_<flag> (e.g. IPC_SECRET_KEY=my-secret)`,
		PreRunE: processConfig,
		RunE:    run,
	}

	startedAt = time.Now()
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:1010", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:1010 or /tmp/ipc.sock for the unix transport)"))

	key = "secret-key"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The shared secret clients must present in their handshake. Required"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Write timeout in seconds"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("If set, the address on which prometheus metrics and pprof are exposed (e.g. localhost:9100). Disabled if empty"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The size of the write buffer for the transport (in KB)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The size of the read buffer for the transport (in KB)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY for the transport (only for TCPConf)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval for the transport (in seconds, only for TCPConf)"))

	key = "transport-tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time for the transport (in seconds, only for TCPConf)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.SecretKey = viper.GetString("secret-key")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint: viper.GetString("endpoint"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
		},
	}

	if serveCmdConfig.SecretKey == "" {
		return fmt.Errorf("secret-key is required (flag --secret-key or env IPC_SECRET_KEY)")
	}

	return nil
}

// run starts the IPC server with the built-in routes
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	var s serializer.ISerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// Parse the transport
	var t transport.IServerTransport
	switch viper.GetString("transport") {
	case "tcp":
		t = tcp.NewTCPServerTransport(64 * 1024)
	case "unix":
		t = unix.NewUnixServerTransport(64 * 1024)
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewIPCServer(
		*serveCmdConfig,
		t,
		s,
		builtinRoutes(),
	)

	return serv.Serve()
}

// builtinRoutes creates the registry with the diagnostic routes of the
// standalone server
func builtinRoutes() *registry.Registry {
	routes := registry.New()
	auditLogger := logger.GetLogger("ipc")

	routes.Register("ping", func(ctx *registry.Context) (any, error) {
		return "pong", nil
	})

	routes.Register("echo", func(ctx *registry.Context) (any, error) {
		return ctx.Data, nil
	})

	routes.Register("info", func(ctx *registry.Context) (any, error) {
		return map[string]any{
			"go_version":     runtime.Version(),
			"num_goroutines": runtime.NumGoroutine(),
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
			"routes":         routes.Names(),
		}, nil
	})

	// The audit route observes every multicast request
	routes.RegisterMulticast("audit", func(ctx *registry.Context) (any, error) {
		auditLogger.Infof("Audit: endpoint %s called from %s with %d data keys", ctx.Endpoint, ctx.RemoteAddr, len(ctx.Data))
		return nil, nil
	})

	return routes
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("ipc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
