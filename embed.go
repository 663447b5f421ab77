package edgeblog

import "embed"

// EmbeddedAssets holds the static files served under /static/: admin.js,
// which drives the admin panel's forms through the JSON API.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
