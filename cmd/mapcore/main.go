// Command mapcore is a command-line interface for converting, inspecting
// and transforming robot occupancy-grid and vector map files.
package main

import (
	"fmt"
	"os"

	"github.com/shaneosullivan-maps/mapcore/internal/mapcoreutil"
)

func main() {
	cfg := mapcoreutil.InitializeConfig()
	if err := cfg.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
