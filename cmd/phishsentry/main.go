// Package main provides the entry point for the PhishSentry CLI.
package main

// main is the entry point.
func main() {
	Execute()
}
