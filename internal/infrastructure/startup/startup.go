package startup

import (
	"fmt"

	"github.com/spf13/viper"
)

const logo = `
██████╗ ██████╗  ██████╗███╗   ███╗██╗   ██╗██╗  ██╗
██╔══██╗██╔══██╗██╔════╝████╗ ████║██║   ██║╚██╗██╔╝
██████╔╝██████╔╝██║     ██╔████╔██║██║   ██║ ╚███╔╝
██╔══██╗██╔═══╝ ██║     ██║╚██╔╝██║██║   ██║ ██╔██╗
██║  ██║██║     ╚██████╗██║ ╚═╝ ██║╚██████╔╝██╔╝ ██╗
╚═╝  ╚═╝╚═╝      ╚═════╝╚═╝     ╚═╝ ╚═════╝ ╚═╝  ╚═╝
`

// LogStartup prints the ASCII banner and the resolved configuration,
// reading straight out of viper rather than a parsed struct.
func LogStartup() {
	fmt.Println(logo)

	version := viper.GetString("application.version")
	fmt.Printf("Starting rpcmux v%s\n\n", version)

	httpPort := viper.GetString("server.httpPort")
	wsPort := viper.GetString("server.wsPort")
	fmt.Println("Server Configuration:")
	fmt.Printf("  HTTP Port: %s\n", httpPort)
	fmt.Printf("  WebSocket Port: %s\n\n", wsPort)

	maxRequestBodySize := viper.GetInt64("rpc.maxRequestBodySize")
	subscriptionBufferSize := viper.GetInt("rpc.subscriptionBufferSize")
	fmt.Println("RPC Configuration:")
	fmt.Printf("  Max Request Body Size: %d bytes\n", maxRequestBodySize)
	fmt.Printf("  Subscription Buffer Size: %d\n\n", subscriptionBufferSize)

	requestsPerMinute := viper.GetInt("rateLimit.requestsPerMinute")
	fmt.Println("Rate Limiting Configuration:")
	fmt.Printf("  Requests Per Minute: %d\n\n", requestsPerMinute)

	logLevel := viper.GetString("logging.level")
	fmt.Println("Logging Configuration:")
	fmt.Printf("  Level: %s\n\n", logLevel)

	fmt.Println("Starting server...")
}
