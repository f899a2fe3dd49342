package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	endpointEnv = "YIELD_RPC_URL"
	secretEnv   = "YIELD_RPC_JWT_SECRET"
	issuerEnv   = "YIELD_RPC_ISSUER"
)

// command maps a subcommand onto one RPC method. build registers flags on fs
// and returns a closure producing the parameter object after parsing.
type command struct {
	method  string
	mutates bool
	usage   string
	build   func(fs *flag.FlagSet) func() (interface{}, error)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("yieldctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	endpoint := global.String("rpc", defaultEndpoint(), "JSON-RPC endpoint of yieldd")
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return 1
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command %q\n", rest[0])
		printUsage(stderr)
		return 1
	}

	fs := flag.NewFlagSet(rest[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	params := cmd.build(fs)
	if err := fs.Parse(rest[1:]); err != nil {
		return 2
	}
	param, err := params()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\nUsage: yieldctl %s %s\n", err, rest[0], cmd.usage)
		return 1
	}

	issuer := strings.TrimSpace(os.Getenv(issuerEnv))
	if issuer == "" {
		issuer = "yieldctl"
	}
	client := newRPCClient(*endpoint, os.Getenv(secretEnv), issuer)
	result, err := client.call(cmd.method, param, cmd.mutates)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	var decoded interface{}
	_ = json.Unmarshal(result, &decoded)
	pretty, _ := json.MarshalIndent(decoded, "", "  ")
	fmt.Fprintln(stdout, string(pretty))
	return 0
}

func defaultEndpoint() string {
	if v := strings.TrimSpace(os.Getenv(endpointEnv)); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: yieldctl [--rpc URL] <command> [flags]")
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %s\n", name, commands[name].usage)
	}
	fmt.Fprintf(w, "Mutating commands sign a bearer token with $%s.\n", secretEnv)
}
