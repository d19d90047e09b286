package main

import (
	"flag"
	"fmt"
	"os"

	"lfd/internal/di"
	"lfd/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the yaml config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "mirror application logs to stderr")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "lfd: %s\n", err)
		os.Exit(1)
	}
}
