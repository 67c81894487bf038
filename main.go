// Package main is the entrypoint of the healthgap CLI.
package main

import (
	"github.com/huangsam/healthgap/cmd"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()

	// Release resources before a possible non-zero exit
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	iocache.CloseStores()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
