// Package config provides configuration structures and utilities for
// PhishSentry. It defines the options for the scan pipeline, the classifier
// connection, the local sentinel server, and report generation preferences.
package config
