package main

import "netbox-sync/cmd"

func main() {
	cmd.Execute()
}
