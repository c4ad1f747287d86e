// Command crudset is the operational CLI for the crudset SQLite store.
package main

import "github.com/mesh-intelligence/crudset/internal/cli"

func main() {
	cli.Execute()
}
