package main

import (
	"os"

	"sql-explain/cli"
)

func main() {
	os.Exit(cli.Execute())
}
