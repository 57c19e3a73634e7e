package main

import "github.com/frahmantamala/benefit-management/cmd"

func main() {
	cmd.Execute()
}
