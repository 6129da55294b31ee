package main

import (
	"github.com/mchmarny/partscore/pkg/cli"
)

func main() {
	cli.Execute()
}
