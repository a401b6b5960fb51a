package main

import (
	"runtime/debug"
	"strings"
)

// version is set with -ldflags "-X main.version=..." on release builds.
var version = "dev"

var readBuildInfo = debug.ReadBuildInfo

func currentVersion() string {
	if v := strings.TrimSpace(version); v != "" && v != "dev" {
		return v
	}
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
		return mv
	}
	return "dev"
}
