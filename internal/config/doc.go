// Package config loads and validates the server, storage, auth and
// notification settings from config.yaml and TASKTRACK_* environment
// variables using viper.
package config
