package cmd

var version = "0.1.0"

const versionTemplate = "caffeinate v{{.Version}}\n"
