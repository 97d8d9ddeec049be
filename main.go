/*
Copyright © 2025 tieubaoca
*/
package main

import "github.com/tieubaoca/contract-intel-be/cmd"

func main() {
	cmd.Execute()
}
