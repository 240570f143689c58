// Command conceptcheck evaluates concepts over a type catalog, checks
// constrained algorithms and serves both over HTTP and gRPC.
//
//	conceptcheck [global flags] <command> [args]
//
// Commands:
//
//	eval QUERY...                 evaluate queries such as "Ordered<int, float>"
//	explain QUERY                 show why a query holds or fails
//	list                          list the concepts of the library
//	demo                          run the built-in demonstration battery
//	check [ALGORITHM TYPE...]     validate or instantiate configured algorithms
//	gotype PATTERN CONCEPT TYPE...  evaluate a concept over Go package types
//	serve                         run the HTTP and gRPC servers
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(exitError)
		}
	}()

	os.Exit(run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr))
}
