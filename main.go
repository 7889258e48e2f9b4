package main

import "github.com/frahmantamala/hotel-billing/cmd"

func main() {
	cmd.Execute()
}
