package call

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ValentinKolb/routeipc/cmd/util"
	"github.com/ValentinKolb/routeipc/ipc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	ipcClient *client.Client

	// CallCmd invokes a single route on a running IPC server
	CallCmd = &cobra.Command{
		Use:   "call [route] [key=value ...]",
		Short: "Invoke a route on a running IPC server",
		Long: `Invoke a named route on a running IPC server and print its response.

The request payload is built from key=value arguments. Values are parsed
as JSON where possible (numbers, booleans, null, quoted strings, objects,
arrays) and passed as plain strings otherwise.

Examples:
  routeipc call ping --secret-key my-secret
  routeipc call echo x=5 name=alice --secret-key my-secret
  routeipc call deploy version=\"1.2.3\" --multicast --secret-key my-secret`,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupClient,
		RunE:              run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common IPC flags to the call command
	util.SetupIPCClientFlags(CallCmd)

	CallCmd.Flags().Bool("multicast", false, util.WrapString("Additionally fan the request out to all multicast routes on the server"))
}

// setupClient initializes the IPC client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	ipcClient = client.NewIPCClient(*config, t, s)
	return nil
}

// run sends the request and prints the response
func run(_ *cobra.Command, args []string) error {
	defer ipcClient.Close()

	route := args[0]
	data, err := parsePayload(args[1:])
	if err != nil {
		return err
	}

	send := ipcClient.Request
	if viper.GetBool("multicast") {
		send = ipcClient.Notify
	}

	resp, err := send(route, data)
	if err != nil {
		return err
	}

	if !resp.Ok() {
		return fmt.Errorf("route %s failed with code %d: %s", route, resp.Code, resp.Error)
	}

	out, err := json.MarshalIndent(resp.Response, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// parsePayload converts key=value arguments to a request payload. Values are
// parsed as JSON where possible and passed as strings otherwise.
func parsePayload(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}

	data := make(map[string]any, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid payload argument %q (expected key=value)", arg)
		}

		var value any
		if err := json.Unmarshal([]byte(parts[1]), &value); err != nil {
			value = parts[1]
		}
		data[parts[0]] = value
	}

	return data, nil
}
