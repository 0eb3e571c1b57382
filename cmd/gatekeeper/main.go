package main

import "github.com/lu-zhengda/gatekeeper/internal/cli"

func main() {
	cli.Execute()
}
