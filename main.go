package main

import "github.com/mabhi256/swotrace/cmd"

func main() {
	cmd.Execute()
}
