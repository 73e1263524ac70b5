// Package defaults holds the browser options parsed from env var "feedshot".
// Set them will set the default value of options used by the renderer.
// Each value is separated by a ",", key and value are separated by "=",
// For example:
//
//	feedshot=show,trace,timeout=2m
//
//	feedshot=bin=/usr/bin/chromium,nosandbox,remote=127.0.0.1:9222
package defaults

import (
	"os"
	"strings"
	"time"

	"github.com/feedshot/feedshot/lib/utils"
)

// Version of feedshot, set via -ldflags "-X github.com/feedshot/feedshot/lib/defaults.Version=..."
var Version = "v0.1.0"

// Show disables headless mode
var Show bool

// Trace enables verbose logs of the browser and the local server
var Trace bool

// Bin is the path of the browser executable, empty means auto detect
var Bin string

// Remote is the address of a running browser to control instead of launching one
var Remote string

// NoSandbox disables the chrome sandbox, usually needed when running as root in a container
var NoSandbox bool

// Timeout of a whole page render, 0 means no timeout
var Timeout time.Duration

// Parse the flags
func init() {
	ResetWithEnv()
}

// Reset all flags to their init values.
func Reset() {
	Show = false
	Trace = false
	Bin = ""
	Remote = ""
	NoSandbox = false
	Timeout = time.Minute
}

// ResetWithEnv all flags by the value of the feedshot env var.
func ResetWithEnv() {
	Reset()
	parse(os.Getenv("feedshot"))
}

// parse options and set them globally
func parse(options string) {
	if options == "" {
		return
	}

	for _, f := range strings.Split(options, ",") {
		kv := strings.SplitN(f, "=", 2)
		rule, has := rules[kv[0]]
		if !has {
			panic("no such feedshot option: " + kv[0])
		}
		if len(kv) == 2 {
			rule(kv[1])
		} else {
			rule("")
		}
	}
}

var rules = map[string]func(string){
	"show": func(string) {
		Show = true
	},
	"trace": func(string) {
		Trace = true
	},
	"bin": func(v string) {
		Bin = v
	},
	"remote": func(v string) {
		Remote = v
	},
	"nosandbox": func(string) {
		NoSandbox = true
	},
	"timeout": func(v string) {
		var err error
		Timeout, err = time.ParseDuration(v)
		utils.E(err)
	},
}
