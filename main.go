package main

import (
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/inside-track/post-deploy-scripts/cmd"
)

func main() {
	cmd.Execute()
}
