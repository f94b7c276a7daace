package main

import (
	"fmt"

	"github.com/nconklindev/sheetsync/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Execute(fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", version, commit, date))
}
