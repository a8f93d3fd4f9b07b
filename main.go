/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "sentinella/cmd"

func main() {
	cmd.Execute()
}
