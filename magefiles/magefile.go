//go:build mage

// Package main provides build targets for the assetcsv project using Mage.
//
// Usage:
//
//	mage build          Compile the assetcsv binary to bin/
//	mage test:all       Run every test
//	mage test:unit      Run tests without the race detector or cache
//	mage test:race      Run tests with the race detector
//	mage test:cover     Write a coverage profile to bin/
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install assetcsv to GOPATH/bin
//	mage stats          Print Go LOC and documentation word counts
package main
