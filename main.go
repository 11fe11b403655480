package main

import (
	"fmt"
	"os"

	"mlaurent/scanledger/cmd/categorize"
	"mlaurent/scanledger/cmd/importcsv"
	"mlaurent/scanledger/cmd/importofx"
	"mlaurent/scanledger/cmd/recur"
	"mlaurent/scanledger/cmd/root"
	"mlaurent/scanledger/cmd/scan"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(scan.Cmd)
	root.Cmd.AddCommand(importcsv.Cmd)
	root.Cmd.AddCommand(importofx.Cmd)
	root.Cmd.AddCommand(recur.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
