package main

import "github.com/mvp-joe/cortex-extract/internal/cli"

func main() {
	cli.Execute()
}
