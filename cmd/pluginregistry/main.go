package main

import (
	"ocm.software/open-component-model/bindings/go/registry/cmd"
)

func main() {
	cmd.Execute()
}
