package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/ValentinKolb/fKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the fKV server",
		Long:    `Start the fKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is FKV_<flag> (e.g. FKV_PAGE_SIZE=2048)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=mem", util.WrapString("Comma-separated list of shards to serve. Format: ID=BACKEND where BACKEND is 'mem' or the path of a flash image (created if missing)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, util.WrapString("Timeout in seconds for writing a response"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", util.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/fkv.sock, ...)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	util.SetupLayoutFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	shards, err := common.ParseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	opts, err := util.GetEEPROMOptions()
	if err != nil {
		return err
	}

	serveCmdConfig.Shards = shards
	serveCmdConfig.PageSize = opts.PageSize
	serveCmdConfig.BaseAddress = opts.BaseAddress
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the fKV server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}
	t, err := util.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			server.Logger.Infof("shutting down")
			_ = serv.Close()
		}
	}()

	return serv.Serve()
}
